package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/grouptree/pkg/navigation"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

type breadcrumbs struct {
	Path []types.Group `json:"path"`
	URL  string        `json:"url"`
}

func (a *app) emitNavigator(cmd *cobra.Command, nav *navigation.Navigator) error {
	out := breadcrumbs{Path: nav.Path(), URL: nav.URL()}
	return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return renderBreadcrumbs(w, out.Path, out.URL)
	})
}

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <id>",
		Short: "Show the breadcrumb path and URL of a group",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				path, err := s.svc.PathTo(ctx, id)
				if err != nil {
					return err
				}
				nav := navigation.New()
				nav.SetPath(path)
				return a.emitNavigator(cmd, nav)
			})
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	var (
		up     int
		toRoot bool
	)
	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Resolve a navigator URL into breadcrumbs",
		Long: `Resolve a URL such as /1/4/9 or /episode-list/9 against the stored
hierarchy. Every ID in a group path must be a child of the one before it.

With --up N the breadcrumbs are cut back so entry N (0-based) is last;
--root clears them.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := navigation.ParseRoute(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				nav := navigation.New()
				switch route.Kind {
				case navigation.RouteEpisodeList:
					path, err := s.svc.PathTo(ctx, route.IDs[0])
					if err != nil {
						return err
					}
					if !path[len(path)-1].IsAlbum() {
						return fmt.Errorf("%w: group %d is not an album", navigation.ErrInvalidRoute, route.IDs[0])
					}
					nav.SetPath(path)
				default:
					for _, id := range route.IDs {
						g, err := s.group(ctx, id)
						if err != nil {
							return err
						}
						if err := nav.PushChild(g); err != nil {
							return err
						}
					}
				}

				switch {
				case toRoot:
					nav.PopToRoot()
				case up >= 0:
					nav.PopTo(up)
				}
				return a.emitNavigator(cmd, nav)
			})
		},
	}
	cmd.Flags().IntVar(&up, "up", -1, "cut the breadcrumbs back to entry N")
	cmd.Flags().BoolVar(&toRoot, "root", false, "clear the breadcrumbs")
	return cmd
}
