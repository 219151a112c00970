package cmd

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch for latest pointer changes",
		Long: `Block and print a line whenever the latest pointer moves to a new
version. Long-running consumers use this to reload without polling.
Stops on Ctrl-C.

Requires a local storage root; the watcher observes the local
filesystem, which is authoritative on hybrid storage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd)
		},
	}
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Storage.Type == config.BackendRemote {
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"watch requires a local storage root").
			WithSuggestion("use local or hybrid storage")
	}

	dir := filepath.Join(a.cfg.Storage.Root, a.cfg.Storage.DataPrefix)
	w, err := watch.NewPointerWatcher(dir, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				a.out.Statusf(">", "latest moved to %s at %s",
					ev.Version, ev.At.Format("15:04:05"))
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				a.out.Warningf("watch error: %v", err)
			}
		}
	}()

	a.out.Statusf("", "watching %s for pointer changes (Ctrl-C to stop)", dir)
	if err := w.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
