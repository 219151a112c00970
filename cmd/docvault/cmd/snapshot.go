package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/versioning"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage data snapshots",
		Long:  `Create and inspect immutable versioned snapshots of source documents.`,
	}

	cmd.AddCommand(newSnapshotCreateCmd())
	cmd.AddCommand(newSnapshotShowCmd())
	return cmd
}

func newSnapshotCreateCmd() *cobra.Command {
	var increment string

	cmd := &cobra.Command{
		Use:   "create <file|dir>...",
		Short: "Create a new snapshot from source files",
		Long: `Copy the given files into a new immutable snapshot version and move
the latest pointer to it. Directories are expanded to the files directly
inside them.

The first snapshot is always v1.0. Later snapshots bump the minor number
by default; pass --increment major for a breaking data change.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotCreate(cmd.Context(), cmd, args, increment)
		},
	}

	cmd.Flags().StringVarP(&increment, "increment", "i", "minor", "Version increment: major or minor")
	return cmd
}

func runSnapshotCreate(ctx context.Context, cmd *cobra.Command, args []string, increment string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	inc, err := versioning.ParseIncrement(increment)
	if err != nil {
		return err
	}

	files, err := expandSources(args)
	if err != nil {
		return err
	}

	// Serialize against other writers on this data root.
	release, err := a.acquireWriterLock()
	if err != nil {
		return err
	}
	defer release()

	v, err := a.manager.Create(ctx, files, inc)
	if err != nil {
		return err
	}

	a.out.Successf("snapshot %s created (%d files)", v, len(files))
	a.out.Detail("latest now points to " + v.String())
	return nil
}

// expandSources resolves arguments to a flat file list. A directory
// argument contributes the regular files directly inside it.
func expandSources(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func newSnapshotShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [version]",
		Short: "Show the manifest of a snapshot",
		Long:  `Print the file inventory of a snapshot version. Defaults to latest.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}
			return runSnapshotShow(cmd.Context(), cmd, ref)
		},
	}
	return cmd
}

func runSnapshotShow(ctx context.Context, cmd *cobra.Command, ref string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := a.manager.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	m, err := a.manager.Manifest(ctx, v)
	if err != nil {
		return err
	}

	a.out.Statusf("", "%s  created %s  digest %s", m.Version,
		m.CreatedAt.Format("2006-01-02 15:04:05"), m.Digest[:12])
	a.out.Newline()

	rows := make([][]string, 0, len(m.Files))
	for _, f := range m.Files {
		rows = append(rows, []string{f.Name, fmt.Sprintf("%d bytes", f.Size), f.SHA256[:12]})
	}
	a.out.Table(rows)
	return nil
}
