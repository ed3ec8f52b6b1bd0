package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/grouptree/pkg/hierarchy"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// group loads one group by ID.
func (s *session) group(ctx context.Context, id int64) (types.Group, error) {
	g, err := s.backend.GetGroupByID(ctx, id)
	if err != nil {
		return types.Group{}, types.WrapPersistence("get group", err)
	}
	return *g, nil
}

func forestText(forest []*hierarchy.TreeNode) func(io.Writer) error {
	return func(w io.Writer) error { return renderForest(w, forest) }
}

func groupsText(groups []types.Group) func(io.Writer) error {
	return func(w io.Writer) error { return renderGroups(w, groups) }
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		foldersOnly bool
		targetsFor  string
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the group hierarchy",
		Long: `Show the whole hierarchy as a tree.

With --folders only folders are shown. With --targets-for ID the tree lists
the folders that group may be moved under: the group itself and everything
beneath it are left out.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				var (
					forest []*hierarchy.TreeNode
					err    error
				)
				switch {
				case targetsFor != "":
					id, perr := parseID(targetsFor)
					if perr != nil {
						return perr
					}
					g, gerr := s.group(ctx, id)
					if gerr != nil {
						return gerr
					}
					forest, err = s.svc.AvailableParents(ctx, &g)
				case foldersOnly:
					forest, err = s.svc.AvailableParents(ctx, nil)
				default:
					forest, err = s.svc.Tree(ctx)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), forest, forestText(forest))
			})
		},
	}
	cmd.Flags().BoolVar(&foldersOnly, "folders", false, "show folders only")
	cmd.Flags().StringVar(&targetsFor, "targets-for", "", "show the folders group ID may be moved under")
	return cmd
}

func newAlbumsCmd(a *app) *cobra.Command {
	var except string
	cmd := &cobra.Command{
		Use:   "albums",
		Short: "Show albums and the folders leading to them",
		Long: `Show the albums in the hierarchy together with the folders above them.

With --except ID the albums are listed flat, leaving out album ID; these are
the albums an episode of album ID can be moved to.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if except != "" {
					id, err := parseID(except)
					if err != nil {
						return err
					}
					targets, err := s.svc.EpisodeMoveTargets(ctx, id)
					if err != nil {
						return err
					}
					return a.emit(cmd.OutOrStdout(), targets, groupsText(targets))
				}
				forest, err := s.svc.AlbumTree(ctx)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), forest, forestText(forest))
			})
		},
	}
	cmd.Flags().StringVar(&except, "except", "", "list albums flat, leaving out album ID")
	return cmd
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [parent-id]",
		Short: "List the direct children of a group, or the roots",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			parentID, err := parseParent(raw)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				var heading string
				if parentID != nil {
					parent := s.svc.GroupOrNil(ctx, *parentID)
					if parent == nil {
						return fmt.Errorf("group %d: %w", *parentID, types.ErrNotFound)
					}
					heading = groupLabel(*parent)
				}
				children, err := s.svc.ListChildren(ctx, parentID)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), children, func(w io.Writer) error {
					if heading != "" {
						if _, err := fmt.Fprintln(w, heading); err != nil {
							return err
						}
					}
					return renderGroups(w, children)
				})
			})
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		parent    string
		groupType string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder or album",
		Long: `Create a group after its existing siblings and list the parent's children.

Example:
  grouptree add Shows
  grouptree add "Season 1" --parent 1 --type album`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseParent(parent)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				listing, err := s.svc.AddGroup(ctx, args[0], parentID, groupType)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), listing, groupsText(listing))
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "parent folder ID (default: root level)")
	cmd.Flags().StringVar(&groupType, "type", types.GroupTypeFolder, "group type: folder or album")
	return cmd
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <parent-id|root>",
		Short: "Move a group under another folder or to the root level",
		Long: `Move a group and list the children left behind in its old parent.

A group cannot be moved under itself or under one of its descendants, and
only folders may hold sub-groups.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			newParentID, err := parseParent(args[1])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				g, err := s.group(ctx, id)
				if err != nil {
					return err
				}
				remaining, err := s.svc.MoveGroup(ctx, g, newParentID)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), remaining, func(w io.Writer) error {
					if _, err := fmt.Fprintf(w, "moved %s to %s\n", groupLabel(g), parentLabel(newParentID)); err != nil {
						return err
					}
					return renderGroups(w, remaining)
				})
			})
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a group",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				forest, err := s.svc.RenameGroup(ctx, id, args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), forest, forestText(forest))
			})
		},
	}
}

func newReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the order of sibling groups",
		Long: `Give the listed groups display orders 0, 1, 2, ... in argument order.
All groups must share one parent.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				ordered := make([]types.Group, len(ids))
				for i, id := range ids {
					g, err := s.group(ctx, id)
					if err != nil {
						return err
					}
					ordered[i] = g
				}
				if err := s.svc.ReorderSiblings(ctx, ordered); err != nil {
					return err
				}
				listing, err := s.svc.ListChildren(ctx, ordered[0].ParentID)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), listing, groupsText(listing))
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a group and everything beneath it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				g, err := s.group(ctx, id)
				if err != nil {
					return err
				}
				deleted, err := s.svc.DeleteGroupRecursive(ctx, g)
				if err != nil {
					return err
				}
				out := struct {
					Deleted []int64 `json:"deleted"`
				}{deleted}
				return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "deleted %s and %d descendant(s)\n", groupLabel(g), len(deleted)-1)
					return err
				})
			})
		},
	}
}
