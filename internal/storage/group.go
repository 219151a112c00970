package storage

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// copyConcurrency bounds parallel object transfers during tree copies and
// mirroring, keeping memory use predictable for large snapshots.
const copyConcurrency = 8

// newGroup returns an errgroup bounded to the transfer concurrency limit.
func newGroup(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)
	return g, ctx
}
