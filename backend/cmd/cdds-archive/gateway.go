package main

import (
	"context"
	"strings"
	"time"

	"github.com/cddsproject/cdds/backend/internal/config"
	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/massgw/localgw"
	"github.com/cddsproject/cdds/backend/internal/massgw/moogw"
	"github.com/cddsproject/cdds/backend/pkg/execx"
	"github.com/cddsproject/cdds/backend/pkg/rate"
)

const mooRateTau = 10 * time.Second

// `mustGateway()` creates the gateway selected by `--gateway`.  The moo
// gateway's rate limiter is regulated until `ctx` is done.
func mustGateway(
	ctx context.Context,
	args map[string]interface{},
	cfg *config.Config,
) massgw.Gateway {
	simulate, _ := args["--simulate"].(bool)
	gwArg := args["--gateway"].(string)

	switch {
	case gwArg == "moo":
		tool := execx.MustLookTool(execx.ToolSpec{
			Program:   cfg.Gateway.Moo,
			CheckArgs: []string{"help"},
			CheckText: "moo",
		})
		limiter := rate.NewLimiter(lg, rate.Config{
			Name:    "moo",
			MinRate: rate.Limit(cfg.Gateway.Rate),
			MaxRate: rate.Limit(cfg.Gateway.MaxRate),
			Burst:   1,
			Tau:     mooRateTau,
		})
		go func() {
			_ = limiter.Regulate(ctx)
		}()
		lg.Infow(
			"Using moo gateway.",
			"moo", tool.Path,
			"simulate", simulate,
		)
		return moogw.New(lg, moogw.NewExecRunner(lg, tool, limiter), simulate)

	case strings.HasPrefix(gwArg, "local:"):
		root := strings.TrimPrefix(gwArg, "local:")
		gw, err := localgw.New(lg, localgw.Config{
			Root:        root,
			MaxFiles:    cfg.Gateway.LocalMaxFiles,
			BytesPerSec: cfg.Gateway.LocalBytesPerSec,
			Simulate:    simulate,
		})
		if err != nil {
			fatalw("Failed to create local gateway.", "err", err)
		}
		lg.Infow(
			"Using local gateway.",
			"root", root,
			"simulate", simulate,
		)
		return gw

	default:
		fatalw("Invalid --gateway.", "gateway", gwArg)
		return nil
	}
}
