package main

import (
	"context"
	"fmt"

	"github.com/cddsproject/cdds/backend/internal/config"
	"github.com/cddsproject/cdds/backend/internal/extractrun"
)

func cmdExtract(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) {
	if err := cfg.ValidateExtract(); err != nil {
		fatalw("Invalid config.", "err", err)
	}
	streams, err := cfg.ExtractStreams(args["<streams>"].([]string))
	if err != nil {
		fatalw("Invalid <streams>.", "err", err)
	}
	planOnly := args["--plan-only"].(bool)

	gw := mustGateway(ctx, args, cfg)
	run := extractrun.New(lg, gw, cfg.ExtractRunConfig())
	if err := run.CheckAvailable(ctx); err != nil {
		fatalw("Cannot retrieve from MASS.", "err", err)
	}

	nSkipped := 0
	for _, s := range streams {
		reqs, err := run.Plan(ctx, s)
		if err != nil {
			fatalw("Failed to plan retrieval.", "stream", s.Name, "err", err)
		}
		lg.Infow(
			"Planned retrieval.",
			"stream", s.Name,
			"type", s.Type.String(),
			"requests", len(reqs),
		)
		if planOnly {
			for _, r := range reqs {
				fmt.Println(r.String())
			}
			continue
		}

		rep, err := run.Execute(ctx, s.Name, reqs)
		if err != nil {
			fatalw("Retrieval failed.", "stream", s.Name, "err", err)
		}
		nSkipped += len(rep.Skipped)
		lg.Infow(
			"Retrieved stream.",
			"stream", rep.Stream,
			"requests", rep.Requests,
			"ok", rep.OK,
			"skipped", len(rep.Skipped),
		)
	}
	if nSkipped > 0 {
		lg.Warnw("Some retrievals were skipped.", "skipped", nSkipped)
	}
}
