package main

import (
	"context"
	"time"

	"github.com/cddsproject/cdds/backend/internal/config"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/mutate"
	"github.com/cddsproject/cdds/backend/internal/storerun"
	"github.com/cddsproject/cdds/backend/pkg/ulid"
)

func mustStoreDatasets(
	args map[string]interface{}, cfg *config.Config,
) ([]*dataset.Descriptor, *daterange.Resolver) {
	if v, ok := args["--data-version"].(string); ok {
		cfg.Archive.DataVersion = v
	}
	if err := cfg.ValidateStore(); err != nil {
		fatalw("Invalid config.", "err", err)
	}

	datestamp, err := cfg.Datestamp(time.Now())
	if err != nil {
		fatalw("Invalid data version.", "err", err)
	}
	md := cfg.Metadata()
	resolver := daterange.NewResolver(md)
	ds, err := storerun.BuildDatasets(
		cfg.Archive.Root, cfg.DatasetRequest(), md, resolver,
		datestamp, cfg.StoreInputs(),
	)
	if err != nil {
		fatalw("Failed to prepare datasets.", "err", err)
	}
	lg.Infow(
		"Prepared datasets.",
		"datasets", len(ds),
		"dataVersion", datestamp,
	)
	return ds, resolver
}

func cmdStore(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) int {
	ds, resolver := mustStoreDatasets(args, cfg)
	simulate := args["--simulate"].(bool)
	gw := mustGateway(ctx, args, cfg)

	runID, err := ulid.New()
	if err != nil {
		fatalw("Failed to create run ID.", "err", err)
	}
	lg.Infow(
		"Started store run.",
		"run", runID.String(),
		"simulate", simulate,
	)

	mut := mutate.New(lg, gw, mutate.Config{
		TmpDir: cfg.Archive.TmpDir,
		RunID:  runID,
	})
	run := storerun.New(lg, gw, mut, resolver, storerun.Config{
		ArchiveRoot:   cfg.Archive.Root,
		Request:       cfg.DatasetRequest(),
		DiagnoseFiles: cfg.Archive.DiagnoseFiles,
		Simulate:      simulate,
	})
	rep, err := run.Run(ctx, ds)
	if err != nil {
		fatalw(
			"Store run failed.",
			"run", runID.String(),
			"err", err,
		)
	}
	logReport(rep)
	return rep.InvalidCount()
}

func cmdClassify(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) int {
	ds, resolver := mustStoreDatasets(args, cfg)
	gw := mustGateway(ctx, args, cfg)
	run := storerun.New(lg, gw, nil, resolver, storerun.Config{
		ArchiveRoot:   cfg.Archive.Root,
		Request:       cfg.DatasetRequest(),
		DiagnoseFiles: cfg.Archive.DiagnoseFiles,
	})
	rep, err := run.Classify(ctx, ds)
	if err != nil {
		fatalw("Classification failed.", "err", err)
	}
	logReport(rep)
	return rep.InvalidCount()
}

func logReport(rep *storerun.Report) {
	for _, o := range rep.Valid {
		lg.Infow(
			"Dataset state.",
			"dataset", o.Dataset.String(),
			"state", o.Result.String(),
			"range", o.Dataset.DateRange.String(),
			"files", len(o.Dataset.Files),
		)
	}
	for _, o := range rep.Invalid {
		lg.Warnw(
			"Dataset excluded.",
			"dataset", o.Dataset.String(),
			"state", o.Result.State.String(),
		)
	}
	lg.Infow(
		"Store summary.",
		"valid", len(rep.Valid),
		"invalid", rep.InvalidCount(),
		"archived", rep.Archived,
		"removedDirs", len(rep.RemovedDirs),
	)
}
