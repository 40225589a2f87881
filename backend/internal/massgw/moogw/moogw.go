// vim: sw=8

// Package `moogw` implements `massgw.Gateway` with the MOOSE command line
// client `moo`.
//
// Commands are executed through a `Runner`.  `ExecRunner` runs `moo`;
// `SimRunner` only logs the command.  A simulating gateway sends commands
// that modify the archive to a `SimRunner` but still runs listings and
// dry-run commands, so that classification and chunk planning see the real
// archive.
package moogw

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/massgw"
)

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
}

type Gateway struct {
	lg       Logger
	run      Runner
	mut      Runner
	simulate bool
}

var _ massgw.Gateway = (*Gateway)(nil)

func New(lg Logger, runner Runner, simulate bool) *Gateway {
	gw := &Gateway{
		lg:       lg,
		run:      runner,
		mut:      runner,
		simulate: simulate,
	}
	if simulate {
		gw.mut = NewSimRunner(lg)
	}
	return gw
}

func (gw *Gateway) exec(
	ctx context.Context, r Runner, args ...string,
) (*massgw.Response, error) {
	resp, err := r.Run(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := massgw.Classify(args, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (gw *Gateway) List(
	ctx context.Context, path string,
) (massgw.Records, error) {
	resp, err := gw.exec(ctx, gw.run, "ls", "-Rl", path)
	switch {
	case errors.Is(err, massgw.ErrNotExist):
		gw.lg.Debugw("MASS path does not exist.", "path", path)
		return make(massgw.Records), nil
	case err != nil:
		return nil, err
	}
	return massgw.ParseListing(resp.Output), nil
}

func (gw *Gateway) Move(
	ctx context.Context, paths []string, dest string, opts massgw.MoveOptions,
) error {
	if opts.CheckLocation {
		if err := gw.Mkdir(ctx, dest, massgw.MkdirOptions{
			Parents: true,
			ExistOK: true,
		}); err != nil {
			return err
		}
	}
	args := append([]string{"mv"}, paths...)
	args = append(args, dest)
	_, err := gw.exec(ctx, gw.mut, args...)
	return err
}

func (gw *Gateway) Mkdir(
	ctx context.Context, dest string, opts massgw.MkdirOptions,
) error {
	args := []string{"mkdir"}
	if opts.Parents {
		args = append(args, "-p")
	}
	args = append(args, dest)
	_, err := gw.exec(ctx, gw.mut, args...)
	if opts.ExistOK && errors.Is(err, massgw.ErrDirExists) {
		return nil
	}
	return err
}

func (gw *Gateway) Rmdir(ctx context.Context, dest string) error {
	_, err := gw.exec(ctx, gw.mut, "rmdir", dest)
	return err
}

func (gw *Gateway) Put(
	ctx context.Context, paths []string, dest string, opts massgw.PutOptions,
) error {
	if opts.CheckLocation {
		if err := gw.Mkdir(ctx, dest, massgw.MkdirOptions{
			Parents: true,
			ExistOK: true,
		}); err != nil {
			return err
		}
	}
	args := append([]string{"put"}, paths...)
	args = append(args, dest)
	_, err := gw.exec(ctx, gw.mut, args...)
	return err
}

func (gw *Gateway) RmEmptyDirs(
	ctx context.Context, root string, searchPaths []string,
) ([]string, error) {
	rs, err := gw.List(ctx, root)
	if err != nil {
		return nil, err
	}
	dirs := rs.EmptyDirs(searchPaths)
	if len(dirs) == 0 {
		gw.lg.Infow("No empty directories found.", "root", root)
		return nil, nil
	}
	gw.lg.Infow(
		"Deleting empty directories.",
		"root", root,
		"dirs", dirs,
	)
	for _, d := range dirs {
		if err := gw.Rmdir(ctx, d); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

func (gw *Gateway) Test(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	return gw.run.Run(ctx, args)
}

func (gw *Gateway) Retrieve(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	return gw.mut.Run(ctx, args)
}

// `ListTapes()` parses `moo ls -m`, whose lines start with the tape id and
// end with the file path.
func (gw *Gateway) ListTapes(
	ctx context.Context, path string,
) ([]massgw.TapeFile, error) {
	resp, err := gw.exec(ctx, gw.run, "ls", "-m", path)
	switch {
	case errors.Is(err, massgw.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return ParseTapeListing(resp.Output), nil
}

func ParseTapeListing(out string) []massgw.TapeFile {
	var files []massgw.TapeFile
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		files = append(files, massgw.TapeFile{
			Tape: fields[0],
			Path: fields[len(fields)-1],
		})
	}
	return files
}

var rgxCommandsEnabled = regexp.MustCompile(
	`([A-Z]*) commands enabled: ([A-Za-z]*)`,
)

func (gw *Gateway) Info(ctx context.Context) (*massgw.Info, error) {
	info := &massgw.Info{Commands: make(map[string]bool)}
	if gw.simulate {
		gw.lg.Infow("Simulating mass command.", "command", "moo si -l")
		info.Available = true
		return info, nil
	}

	resp, err := gw.exec(ctx, gw.run, "si", "-l")
	var cmdErr *massgw.CommandError
	switch {
	case errors.As(err, &cmdErr):
		gw.lg.Warnw("MASS is not available.", "err", err)
		return info, nil
	case err != nil:
		return nil, err
	}

	info.Available = true
	for k, v := range ParseCommandsEnabled(resp.Output) {
		info.Commands[k] = v
	}
	return info, nil
}

// `ParseCommandsEnabled()` parses the `... commands enabled: true` lines of
// `moo si -l`.
func ParseCommandsEnabled(out string) map[string]bool {
	cmds := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		m := rgxCommandsEnabled.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		cmds[m[1]] = strings.ToLower(m[2]) == "true"
	}
	return cmds
}
