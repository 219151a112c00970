package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/errors"
)

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload local state to the remote store",
		Long: `Upload every local snapshot and index file to the remote object store.
Files whose content already matches the remote copy are skipped, so
re-running after a partial failure only transfers what is missing.

Requires hybrid storage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd, true)
		},
	}
	return cmd
}

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download remote state to the local root",
		Long: `Download every remote snapshot and index file into the local root.
Used to seed a fresh machine from the shared store.

Requires hybrid storage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd, false)
		},
	}
	return cmd
}

func runSync(ctx context.Context, cmd *cobra.Command, push bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	h := a.hybrid()
	if h == nil {
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"push and pull require hybrid storage, current type is %s", a.cfg.Storage.Type).
			WithSuggestion("set storage.type: hybrid in " + ".docvault.yaml")
	}

	prefixes := []string{a.cfg.Storage.DataPrefix, a.cfg.Storage.IndexPrefix}
	for _, prefix := range prefixes {
		if push {
			err = h.Push(ctx, prefix)
		} else {
			err = h.Pull(ctx, prefix)
		}
		if err != nil {
			return err
		}
	}

	if push {
		a.out.Success("local state pushed to remote")
	} else {
		a.out.Success("remote state pulled to local root")
	}
	return nil
}
