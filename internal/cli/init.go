package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/grouptree/internal/paths"
	"github.com/mesh-intelligence/grouptree/internal/sqlite"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize grouptree storage",
		Long:  "Create the configuration and data directories, write a default config.yaml, and create the group database.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return err
			}

			written, err := writeConfigIfMissing(a.resolvedConfigDir, dataDir)
			if err != nil {
				return err
			}
			if written {
				a.logger.Info("config written", "path", filepath.Join(a.resolvedConfigDir, paths.ConfigFileName))
			}

			backend := sqlite.NewBackend(a.logger)
			cfg := types.Config{Backend: a.cfg.GetString(cfgKeyBackend), DataDir: dataDir}
			if err := backend.Attach(cfg); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "grouptree initialized in %s\n", dataDir)
			return nil
		},
	}
}
