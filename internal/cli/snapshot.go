package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every group to a JSONL snapshot",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				header, err := s.backend.Export(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), header, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "exported %d group(s) to %s (snapshot %s)\n", header.Count, args[0], header.SnapshotID)
					return err
				})
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every group with a JSONL snapshot",
		Long: `Replace the stored hierarchy with the groups in a snapshot written by
export. Group IDs are kept. Nothing changes if any record is invalid.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				n, err := s.backend.Import(ctx, args[0])
				if err != nil {
					return err
				}
				out := struct {
					Imported int `json:"imported"`
				}{n}
				return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "imported %d group(s) from %s\n", n, args[0])
					return err
				})
			})
		},
	}
}
