package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/mesh-intelligence/grouptree/pkg/hierarchy"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// isTerminal reports whether w is an interactive terminal. Box-drawing
// styles are used only there; pipes and files get plain ASCII.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func groupLabel(g types.Group) string {
	label := fmt.Sprintf("%s (#%d)", g.Name, g.ID)
	if g.IsAlbum() {
		label += " [album]"
	}
	return label
}

func parentLabel(parentID *int64) string {
	if parentID == nil {
		return "root"
	}
	return strconv.FormatInt(*parentID, 10)
}

// renderGroups writes a flat listing as a table.
func renderGroups(w io.Writer, groups []types.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "no groups")
		return err
	}

	tw := table.NewWriter()
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	}
	tw.AppendHeader(table.Row{"ID", "Name", "Type", "Order", "Parent"})
	for _, g := range groups {
		tw.AppendRow(table.Row{g.ID, g.Name, g.GroupType, g.DisplayOrder, parentLabel(g.ParentID)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

// renderForest writes a forest as an indented tree.
func renderForest(w io.Writer, forest []*hierarchy.TreeNode) error {
	if len(forest) == 0 {
		_, err := fmt.Fprintln(w, "no groups")
		return err
	}

	lw := list.NewWriter()
	if isTerminal(w) {
		lw.SetStyle(list.StyleConnectedRounded)
	} else {
		lw.SetStyle(list.StyleConnectedLight)
	}

	level := 0
	for _, root := range forest {
		root.Walk(func(n *hierarchy.TreeNode, depth int) {
			for ; level < depth; level++ {
				lw.Indent()
			}
			for ; level > depth; level-- {
				lw.UnIndent()
			}
			lw.AppendItem(groupLabel(n.Group))
		})
	}
	_, err := fmt.Fprintln(w, lw.Render())
	return err
}

// renderBreadcrumbs writes "A > B > C" followed by the navigator URL.
func renderBreadcrumbs(w io.Writer, path []types.Group, url string) error {
	names := make([]string, len(path))
	for i, g := range path {
		names[i] = g.Name
	}
	crumbs := strings.Join(names, " > ")
	if crumbs == "" {
		crumbs = "(root)"
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", crumbs, url)
	return err
}
