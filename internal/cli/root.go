// Package cli implements the grouptree command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/grouptree/internal/logging"
	"github.com/mesh-intelligence/grouptree/internal/paths"
	"github.com/mesh-intelligence/grouptree/internal/sqlite"
	"github.com/mesh-intelligence/grouptree/pkg/hierarchy"
	"github.com/mesh-intelligence/grouptree/pkg/navigation"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks bad arguments or flags.
var errUsage = errors.New("usage")

// userErrors are failures caused by the request rather than the system.
var userErrors = []error{
	errUsage,
	types.ErrValidation,
	types.ErrNotFound,
	types.ErrSelfParent,
	types.ErrCyclicMove,
	types.ErrInvalidParentType,
	types.ErrNotChildOfCurrent,
	navigation.ErrInvalidRoute,
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// app holds global flag values and the per-invocation state built from them.
type app struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonOut   bool

	resolvedConfigDir string
	cfg               *viper.Viper
	logger            *slog.Logger
}

// NewRootCmd creates the top-level "grouptree" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "grouptree",
		Short: "Organize folders and albums into a tree",
		Long: `grouptree keeps a hierarchy of folders and albums. Folders hold other
groups; albums are leaves that hold episodes.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/grouptree)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/grouptree)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newTreeCmd(a),
		newAlbumsCmd(a),
		newLsCmd(a),
		newAddCmd(a),
		newMvCmd(a),
		newRenameCmd(a),
		newReorderCmd(a),
		newRmCmd(a),
		newPathCmd(a),
		newOpenCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// setup resolves the config directory, loads config.yaml, and builds the
// logger. The version command needs none of it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.GetString(cfgKeyLogFormat),
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	a.resolvedConfigDir = configDir
	a.cfg = cfg
	a.logger = logger
	return nil
}

// resolveDataDir applies flag > env > config.yaml > platform default.
func (a *app) resolveDataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}

// session is an attached backend and the service running on it.
type session struct {
	backend *sqlite.Backend
	svc     *hierarchy.Service
}

// withSession attaches the backend, runs fn, and detaches.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return err
	}

	backend := sqlite.NewBackend(a.logger)
	cfg := types.Config{Backend: a.cfg.GetString(cfgKeyBackend), DataDir: dataDir}
	if err := backend.Attach(cfg); err != nil {
		return fmt.Errorf("attach backend: %w", err)
	}
	defer func() {
		if err := backend.Detach(); err != nil {
			a.logger.Error("detach backend", "error", err)
		}
	}()

	return fn(cmd.Context(), &session{
		backend: backend,
		svc:     hierarchy.NewService(backend, a.logger),
	})
}

// emit writes v as indented JSON in --json mode, and calls text otherwise.
func (a *app) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if !a.jsonOut {
		return text(w)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// exactArgs is cobra.ExactArgs with usage errors marked.
func exactArgs(n int) cobra.PositionalArgs {
	return markUsage(cobra.ExactArgs(n))
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return markUsage(cobra.RangeArgs(lo, hi))
}

func minArgs(n int) cobra.PositionalArgs {
	return markUsage(cobra.MinimumNArgs(n))
}

func markUsage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

// parseID parses a group ID argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a group id", errUsage, s)
	}
	return id, nil
}

// parseParent parses a parent argument; "root" (or "") means the root level.
func parseParent(s string) (*int64, error) {
	if s == "" || s == "root" {
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
