package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/errors"
	"github.com/docvault/docvault/internal/index"
	"github.com/docvault/docvault/internal/lineage"
	"github.com/docvault/docvault/internal/lock"
	"github.com/docvault/docvault/internal/output"
	"github.com/docvault/docvault/internal/snapshot"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// app bundles the wired components every subcommand needs.
type app struct {
	cfg      *config.Config
	backend  storage.Backend
	catalog  *versioning.Catalog
	manager  *snapshot.Manager
	sync     *index.Synchronizer
	recorder *lineage.Recorder
	out      *output.Writer
}

// newApp loads configuration and wires the component graph.
func newApp(cmd *cobra.Command) (*app, error) {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		dir = "."
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	backend, err := storage.New(storage.Options{
		Type:      storage.Type(cfg.Storage.Type),
		Root:      cfg.Storage.Root,
		Endpoint:  cfg.Storage.Remote.Endpoint,
		Bucket:    cfg.Storage.Remote.Bucket,
		Prefix:    cfg.Storage.Remote.Prefix,
		AccessKey: cfg.Storage.Remote.AccessKey,
		SecretKey: cfg.Storage.Remote.SecretKey,
		UseSSL:    cfg.Storage.Remote.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	catalog := versioning.NewCatalog(backend, cfg.Storage.DataPrefix)
	manager := snapshot.NewManager(backend, catalog, nil)
	recorder, err := lineage.NewRecorder(backend, nil)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		backend:  backend,
		catalog:  catalog,
		manager:  manager,
		sync:     index.NewSynchronizer(backend, catalog, manager, cfg.Storage.IndexPrefix, nil),
		recorder: recorder,
		out:      output.New(cmd.OutOrStdout()),
	}, nil
}

// close flushes backends holding queued work.
func (a *app) close() {
	if c, ok := a.backend.(storage.Closer); ok {
		_ = c.Close()
	}
}

// acquireWriterLock takes the cross-process writer lock for the data
// root, refusing rather than waiting when another writer holds it. The
// returned release func is a no-op when the backend has no local root to
// anchor the lock file.
func (a *app) acquireWriterLock() (release func(), err error) {
	if a.cfg.Storage.Type == config.BackendRemote {
		return func() {}, nil
	}
	wl := lock.NewWriterLock(a.cfg.Storage.Root)
	acquired, err := wl.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, errors.Newf(errors.ErrCodeStorageUnavailable,
			"another writer holds the lock on %s", a.cfg.Storage.Root).
			WithSuggestion("wait for the running docvault writer to finish")
	}
	return func() { _ = wl.Unlock() }, nil
}

// hybrid returns the hybrid backend, or nil when storage is not hybrid.
func (a *app) hybrid() *storage.Hybrid {
	h, _ := a.backend.(*storage.Hybrid)
	return h
}
