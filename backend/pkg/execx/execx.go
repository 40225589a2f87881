// Package `execx` provides utility functions that supplement the stdlib
// package `os/exec`.
//
// `MustLookTool()` reliably locates external command line tools during program
// startup.  `Run()` executes a tool and captures its exit code together with
// its output, which is how the `moo` client reports most of its errors.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// `ToolSpec` is used to tell `MustLookTool()` how to look for an external
// tool.
type ToolSpec struct {
	Program   string
	CheckArgs []string
	CheckText string
}

type Tool struct {
	Path string
}

func LookTool(s ToolSpec) (*Tool, error) {
	path, err := exec.LookPath(s.Program)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to find path of `%s`: %v", s.Program, err,
		)
	}

	o, err := exec.Command(path, s.CheckArgs...).Output()
	if err != nil {
		return nil, fmt.Errorf(
			"failed to execute `%s %s`: %v", path,
			strings.Join(s.CheckArgs, ", "), err,
		)
	}
	if !strings.Contains(string(o), s.CheckText) {
		return nil, fmt.Errorf(
			"`%s %s` did not print `%s`.", s.Program,
			strings.Join(s.CheckArgs, ", "), s.CheckText,
		)
	}

	return &Tool{path}, nil
}

// `MustLookTool()` tries to run `s.Program` with `s.CheckArgs` and verifies
// that its output contains `s.CheckText`.  If anything fails, `MustLookTool()`
// panics.
func MustLookTool(s ToolSpec) *Tool {
	t, err := LookTool(s)
	if err != nil {
		msg := fmt.Sprintf("%v", err)
		panic(msg)
	}
	return t
}

// `Result` is the outcome of a command that ran to completion.  A non-zero
// `Code` is not an error for `Run()`.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// `Output()` returns stdout followed by stderr.
func (r *Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// `Run()` executes the tool with `args`.  It returns an error only if the
// program could not be started or was killed, for example because `ctx` was
// cancelled.  Exit codes are reported in `Result.Code`.
func (t *Tool) Run(ctx context.Context, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		res.Code = exitErr.ExitCode()
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf(
		"failed to execute `%s %s`: %v", t.Path,
		strings.Join(args, " "), err,
	)
}
