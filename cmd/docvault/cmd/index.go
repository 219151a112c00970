package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/versioning"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage derived index directories",
		Long: `Manage the artifact directories search indexes are built into. Each
directory is named after the snapshot version it derives from.`,
	}

	cmd.AddCommand(newIndexEnsureCmd())
	cmd.AddCommand(newIndexVerifyCmd())
	return cmd
}

func newIndexEnsureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensure [version]",
		Short: "Ensure the index directory for a version exists",
		Long: `Create the index directory for a snapshot version if it does not
already exist and print its path. Defaults to latest. Refuses versions
that have no snapshot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}
			return runIndexEnsure(cmd.Context(), cmd, ref)
		},
	}
	return cmd
}

func runIndexEnsure(ctx context.Context, cmd *cobra.Command, ref string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var v versioning.Version
	if ref == "latest" {
		dir, err := a.sync.ResolveLatest(ctx)
		if err != nil {
			return err
		}
		v = dir.Version
	} else {
		if v, err = versioning.Parse(ref); err != nil {
			return err
		}
	}

	release, err := a.acquireWriterLock()
	if err != nil {
		return err
	}
	defer release()

	dir, err := a.sync.EnsureArtifactDir(ctx, v)
	if err != nil {
		return err
	}

	a.out.Successf("index directory ready: %s", dir.Path)
	return nil
}

func newIndexVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check index directories against snapshots and lineage",
		Long: `Scan the index tree for inconsistencies: directories whose snapshot is
missing, and populated directories without a lineage record. Exits
non-zero when anything is found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexVerify(cmd.Context(), cmd)
		},
	}
	return cmd
}

func runIndexVerify(ctx context.Context, cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	findings, err := a.sync.Verify(ctx)
	if err != nil {
		return err
	}

	if len(findings) == 0 {
		a.out.Success("index tree is consistent")
		return nil
	}

	for _, f := range findings {
		a.out.Errorf("%s: %s", f.Version, f.Problem)
	}
	return fmt.Errorf("%d consistency problem(s) found", len(findings))
}
