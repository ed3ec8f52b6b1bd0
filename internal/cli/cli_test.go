package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/grouptree/pkg/hierarchy"
	"github.com/mesh-intelligence/grouptree/pkg/navigation"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	return testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes one grouptree invocation and returns its stdout.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// runJSON executes an invocation in --json mode and decodes stdout into v.
func (e testEnv) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := e.run(t, append([]string{"--json"}, args...)...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// seed builds: Shows(1) > {Drama(2), Season 1(3, album)}, Loose(4, album).
func (e testEnv) seed(t *testing.T) {
	t.Helper()
	for _, args := range [][]string{
		{"add", "Shows"},
		{"add", "Drama", "--parent", "1"},
		{"add", "Season 1", "--parent", "1", "--type", "album"},
		{"add", "Loose", "--type", "album"},
	} {
		_, err := e.run(t, args...)
		require.NoError(t, err, "%v", args)
	}
}

func TestInit_WritesConfigOnce(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "grouptree initialized")
	assert.FileExists(t, filepath.Join(env.dataDir, "grouptree.db"))

	path := filepath.Join(env.configDir, "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, env.dataDir, cfg.DataDir)

	custom := []byte("backend: sqlite\nlog_level: error\n")
	require.NoError(t, os.WriteFile(path, custom, 0o644))
	_, err = env.run(t, "init")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, data, "existing config is left alone")
}

func TestAddListAndTree(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	var roots []types.Group
	env.runJSON(t, &roots, "ls")
	require.Len(t, roots, 2)
	assert.Equal(t, "Shows", roots[0].Name)
	assert.Equal(t, 0, roots[0].DisplayOrder)
	assert.Equal(t, "Loose", roots[1].Name)
	assert.Equal(t, 1, roots[1].DisplayOrder)

	var children []types.Group
	env.runJSON(t, &children, "ls", "1")
	require.Len(t, children, 2)
	assert.Equal(t, []string{"Drama", "Season 1"}, []string{children[0].Name, children[1].Name})

	out, err := env.run(t, "ls", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Shows (#1)")
	assert.Contains(t, out, "Season 1")

	out, err = env.run(t, "tree")
	require.NoError(t, err)
	for _, want := range []string{"Shows (#1)", "Drama (#2)", "Season 1 (#3) [album]", "Loose (#4) [album]"} {
		assert.Contains(t, out, want)
	}

	_, err = env.run(t, "ls", "99")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAdd_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"blank name", []string{"add", "   "}, types.ErrInvalidName},
		{"unknown type", []string{"add", "x", "--type", "playlist"}, types.ErrInvalidGroupType},
		{"album parent", []string{"add", "x", "--parent", "3"}, types.ErrInvalidParentType},
		{"missing parent", []string{"add", "x", "--parent", "99"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestMove(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	var remaining []types.Group
	env.runJSON(t, &remaining, "mv", "4", "2")
	require.Len(t, remaining, 1, "Shows is left at the root")
	assert.Equal(t, int64(1), remaining[0].ID)

	var path breadcrumbs
	env.runJSON(t, &path, "path", "4")
	assert.Equal(t, "/episode-list/4", path.URL)
	require.Len(t, path.Path, 3)
	assert.Equal(t, "Drama", path.Path[1].Name)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"self", []string{"mv", "2", "2"}, types.ErrSelfParent},
		{"under descendant", []string{"mv", "1", "2"}, types.ErrCyclicMove},
		{"under album", []string{"mv", "2", "3"}, types.ErrInvalidParentType},
		{"missing target", []string{"mv", "2", "99"}, types.ErrNotFound},
		{"missing group", []string{"mv", "99", "root"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	env.runJSON(t, &remaining, "mv", "2", "root")
	var roots []types.Group
	env.runJSON(t, &roots, "ls")
	assert.Len(t, roots, 2)

	out, err := env.run(t, "mv", "4", "root")
	require.NoError(t, err)
	assert.Contains(t, out, "moved Loose (#4) [album] to root\n")
}

func TestRenameReorderRemove(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	var forest []*hierarchy.TreeNode
	env.runJSON(t, &forest, "rename", "2", "  Comedy ")
	require.Len(t, forest, 2)
	assert.Equal(t, "Comedy", forest[0].Children[0].Group.Name)

	var listing []types.Group
	env.runJSON(t, &listing, "reorder", "3", "2")
	require.Len(t, listing, 2)
	assert.Equal(t, int64(3), listing[0].ID)
	assert.Equal(t, 0, listing[0].DisplayOrder)
	assert.Equal(t, int64(2), listing[1].ID)
	assert.Equal(t, 1, listing[1].DisplayOrder)

	_, err := env.run(t, "reorder", "2", "4")
	assert.ErrorIs(t, err, types.ErrMixedSiblings)
	assert.ErrorIs(t, err, types.ErrValidation)

	var deleted struct {
		Deleted []int64 `json:"deleted"`
	}
	env.runJSON(t, &deleted, "rm", "1")
	assert.Equal(t, []int64{1, 2, 3}, deleted.Deleted)

	var roots []types.Group
	env.runJSON(t, &roots, "ls")
	require.Len(t, roots, 1)
	assert.Equal(t, "Loose", roots[0].Name)
}

func TestAlbumsAndTargets(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	var albums []*hierarchy.TreeNode
	env.runJSON(t, &albums, "albums")
	require.Len(t, albums, 2)
	assert.Equal(t, "Shows", albums[0].Group.Name)
	require.Len(t, albums[0].Children, 1, "Drama has no albums and is pruned")
	assert.Equal(t, "Season 1", albums[0].Children[0].Group.Name)

	var targets []types.Group
	env.runJSON(t, &targets, "albums", "--except", "3")
	require.Len(t, targets, 1)
	assert.Equal(t, int64(4), targets[0].ID)

	var parents []*hierarchy.TreeNode
	env.runJSON(t, &parents, "tree", "--targets-for", "2")
	require.Len(t, parents, 1)
	assert.Equal(t, "Shows", parents[0].Group.Name)
	assert.Empty(t, parents[0].Children)

	env.runJSON(t, &parents, "tree", "--folders")
	require.Len(t, parents, 1)
	assert.Len(t, parents[0].Children, 1)
}

func TestPathAndOpen(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out, err := env.run(t, "path", "3")
	require.NoError(t, err)
	assert.Equal(t, "Shows > Season 1\n/episode-list/3\n", out)

	var crumbs breadcrumbs
	env.runJSON(t, &crumbs, "open", "/1/2")
	assert.Equal(t, "/1/2", crumbs.URL)
	require.Len(t, crumbs.Path, 2)

	env.runJSON(t, &crumbs, "open", navigation.EpisodeListURL(3))
	assert.Equal(t, "/episode-list/3", crumbs.URL)
	assert.Len(t, crumbs.Path, 2)

	env.runJSON(t, &crumbs, "open", "/1/2", "--up", "0")
	assert.Equal(t, "/1", crumbs.URL)

	env.runJSON(t, &crumbs, "open", "/1/2", "--root")
	assert.Equal(t, "/", crumbs.URL)
	assert.Empty(t, crumbs.Path)

	_, err = env.run(t, "open", "/2")
	assert.ErrorIs(t, err, types.ErrNotChildOfCurrent)

	_, err = env.run(t, "open", "/episode-list/x")
	assert.ErrorIs(t, err, navigation.ErrInvalidRoute)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "open", navigation.EpisodeListURL(1))
	assert.ErrorIs(t, err, navigation.ErrInvalidRoute, "folders have no episode list")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExportImport(t *testing.T) {
	src := newTestEnv(t)
	src.seed(t)
	file := filepath.Join(t.TempDir(), "groups.jsonl")

	out, err := src.run(t, "export", file)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 4 group(s)")

	dst := newTestEnv(t)
	var imported struct {
		Imported int `json:"imported"`
	}
	dst.runJSON(t, &imported, "import", file)
	assert.Equal(t, 4, imported.Imported)

	var want, got []types.Group
	src.runJSON(t, &want, "ls", "1")
	dst.runJSON(t, &got, "ls", "1")
	assert.Equal(t, want, got)
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad id", []string{"mv", "abc", "root"}},
		{"zero id", []string{"rm", "0"}},
		{"too many args", []string{"ls", "1", "2"}},
		{"missing args", []string{"rename", "1"}},
		{"unknown flag", []string{"tree", "--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"validation", types.ErrInvalidName, exitUserError},
		{"not found", types.ErrNotFound, exitUserError},
		{"persistence", types.WrapPersistence("update orders", errors.New("disk full")), exitSysError},
		{"locked", types.ErrBackendLocked, exitSysError},
		{"cycle in data", types.ErrCycleDetected, exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "grouptree "+Version)
	assert.NoDirExists(t, env.configDir, "version reads no config")
}
