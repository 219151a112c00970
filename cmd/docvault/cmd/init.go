package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/configs"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a commented .docvault.yaml template into the project directory.
Refuses to overwrite an existing file unless --force is given.`,
		Example: `  # Initialize in the current directory
  docvault init

  # Overwrite an existing config
  docvault init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cmd.Flags().GetString("config")
			if err != nil {
				dir = "."
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("wrote %s", path)
	out.Detail("edit storage.type and storage.root, then run: docvault snapshot create <files>")
	return nil
}
