package main

import (
	"context"

	"github.com/cddsproject/cdds/backend/internal/config"
	"github.com/cddsproject/cdds/backend/internal/storerun"
)

func cmdCleanup(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) {
	ds, resolver := mustStoreDatasets(args, cfg)
	gw := mustGateway(ctx, args, cfg)
	run := storerun.New(lg, gw, nil, resolver, storerun.Config{
		ArchiveRoot: cfg.Archive.Root,
		Request:     cfg.DatasetRequest(),
		Simulate:    args["--simulate"].(bool),
	})
	removed, err := run.Cleanup(ctx, ds)
	if err != nil {
		fatalw("Cleanup failed.", "err", err)
	}
	lg.Infow("Cleanup complete.", "removedDirs", len(removed))
}
