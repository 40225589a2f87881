package moogw

import (
	"context"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/pkg/execx"
	"github.com/cddsproject/cdds/backend/pkg/rate"
	"golang.org/x/sync/semaphore"
)

// `Runner` executes `moo args...`.  It returns an error only if the command
// could not be run at all.  Exit codes are reported in the response.
type Runner interface {
	Run(ctx context.Context, args []string) (*massgw.Response, error)
}

// `ExecRunner` runs the `moo` client as a subprocess.  Commands are executed
// one at a time and paced by an adaptive rate limiter.
type ExecRunner struct {
	lg      Logger
	tool    *execx.Tool
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func NewExecRunner(
	lg Logger, tool *execx.Tool, limiter *rate.Limiter,
) *ExecRunner {
	return &ExecRunner{
		lg:      lg,
		tool:    tool,
		sem:     semaphore.NewWeighted(1),
		limiter: limiter,
	}
}

func (r *ExecRunner) Run(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	r.lg.Debugw("Running moo.", "args", args)
	res, err := r.tool.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	resp := &massgw.Response{
		Code:   res.Code,
		Output: res.Output(),
	}
	r.lg.Debugw(
		"moo returned.",
		"args", args,
		"code", resp.Code,
		"output", resp.Output,
	)

	if r.limiter != nil {
		if massgw.IsExcessLoad(massgw.Classify(args, resp)) {
			r.limiter.Excess()
		} else {
			r.limiter.Success()
		}
	}
	return resp, nil
}

// `SimOutput` is the output of every simulated command.
const SimOutput = "SIMULATED"

// `SimRunner` logs commands instead of running them and reports success.
type SimRunner struct {
	lg Logger
}

func NewSimRunner(lg Logger) *SimRunner {
	return &SimRunner{lg: lg}
}

func (r *SimRunner) Run(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.lg.Infow(
		"Simulating mass command.",
		"command", "moo "+strings.Join(args, " "),
	)
	return &massgw.Response{Code: 0, Output: SimOutput}, nil
}
