// vim: sw=8

// Package `localgw` implements `massgw.Gateway` on a local directory that
// mirrors the MASS namespace.  It is used for offline rehearsals of store and
// extract runs and in tests.
//
// MASS paths are mapped below `Config.Root` after stripping the `moose:`
// scheme.  Failures are reported as `massgw.CommandError` with the exit codes
// and messages that `moo` would use.  Tape listings treat the first directory
// level below the listed path as tape ids.  Dry-run selections fail with
// `TSSC_EXCEEDS_FILE_NUMBER_LIMIT` if they match more than `Config.MaxFiles`
// files.
package localgw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/pkg/ratelimit"
)

var ErrMissingRoot = errors.New("missing local gateway root")
var ErrRootNotDir = errors.New("local gateway root is not a directory")

type Logger interface {
	Infow(msg string, kv ...interface{})
}

type Config struct {
	Root string
	// `MaxFiles` limits dry-run selections.  Zero means no limit.
	MaxFiles int
	// `BytesPerSec` limits `Put()` copies.  Zero means no limit.
	BytesPerSec float64
	Simulate    bool
}

type Gateway struct {
	lg  Logger
	cfg Config
}

var _ massgw.Gateway = (*Gateway)(nil)

func New(lg Logger, cfg Config) (*Gateway, error) {
	if cfg.Root == "" {
		return nil, ErrMissingRoot
	}
	if !isDir(cfg.Root) {
		return nil, ErrRootNotDir
	}
	return &Gateway{lg: lg, cfg: cfg}, nil
}

func (gw *Gateway) local(p string) string {
	return filepath.Join(gw.cfg.Root, filepath.FromSlash(
		strings.TrimPrefix(p, "moose:"),
	))
}

func (gw *Gateway) simulated(args ...string) bool {
	if !gw.cfg.Simulate {
		return false
	}
	gw.lg.Infow(
		"Simulating mass command.",
		"command", "moo "+strings.Join(args, " "),
	)
	return true
}

func fail(args []string, code int, output string) error {
	return massgw.Classify(args, &massgw.Response{
		Code:   code,
		Output: output,
	})
}

func notExist(args []string, p string) error {
	return fail(args, 2, fmt.Sprintf("ERROR: TSSC_FILE_DOES_NOT_EXIST: %s", p))
}

func (gw *Gateway) List(
	ctx context.Context, p string,
) (massgw.Records, error) {
	rs := make(massgw.Records)
	root := gw.local(p)
	if !exists(root) {
		return rs, nil
	}
	err := filepath.Walk(root, func(
		lp string, inf os.FileInfo, err error,
	) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, lp)
		if err != nil {
			return err
		}
		mp := p
		if rel != "." {
			mp = path.Join(p, filepath.ToSlash(rel))
		}
		rs.Add(massgw.NewRecord(mp, inf.IsDir()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.UpdateEmpty()
	return rs, nil
}

func (gw *Gateway) Move(
	ctx context.Context, paths []string, dest string, opts massgw.MoveOptions,
) error {
	args := append(append([]string{"mv"}, paths...), dest)
	if opts.CheckLocation {
		if err := gw.Mkdir(ctx, dest, massgw.MkdirOptions{
			Parents: true, ExistOK: true,
		}); err != nil {
			return err
		}
	}
	if gw.simulated(args...) {
		return nil
	}

	dst := gw.local(dest)
	if !isDir(dst) {
		return notExist(args, dest)
	}
	for _, p := range paths {
		src := gw.local(p)
		if !exists(src) {
			return notExist(args, p)
		}
		target := filepath.Join(dst, filepath.Base(src))
		if exists(target) {
			return fail(args, 2, "ERROR_CLIENT_PATH_ALREADY_EXISTS: "+target)
		}
		if err := os.Rename(src, target); err != nil {
			return err
		}
	}
	return nil
}

func (gw *Gateway) Mkdir(
	ctx context.Context, dest string, opts massgw.MkdirOptions,
) error {
	args := []string{"mkdir"}
	if opts.Parents {
		args = append(args, "-p")
	}
	args = append(args, dest)
	if gw.simulated(args...) {
		return nil
	}

	dst := gw.local(dest)
	if exists(dst) {
		if opts.ExistOK {
			return nil
		}
		return fail(args, 10, "ERROR: directory already exists: "+dest)
	}
	if opts.Parents {
		return os.MkdirAll(dst, 0777)
	}
	if !isDir(filepath.Dir(dst)) {
		return notExist(args, path.Dir(dest))
	}
	return os.Mkdir(dst, 0777)
}

func (gw *Gateway) Rmdir(ctx context.Context, dest string) error {
	args := []string{"rmdir", dest}
	if gw.simulated(args...) {
		return nil
	}
	dst := gw.local(dest)
	if !isDir(dst) {
		return notExist(args, dest)
	}
	if err := os.Remove(dst); err != nil {
		return fail(args, 2, fmt.Sprintf("ERROR: %v", err))
	}
	return nil
}

func (gw *Gateway) Put(
	ctx context.Context, paths []string, dest string, opts massgw.PutOptions,
) error {
	args := append(append([]string{"put"}, paths...), dest)
	if opts.CheckLocation {
		if err := gw.Mkdir(ctx, dest, massgw.MkdirOptions{
			Parents: true, ExistOK: true,
		}); err != nil {
			return err
		}
	}
	if gw.simulated(args...) {
		return nil
	}

	dst := gw.local(dest)
	if !isDir(dst) {
		return notExist(args, dest)
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.Base(p))
		if exists(target) {
			return fail(args, 2, "ERROR_CLIENT_PATH_ALREADY_EXISTS: "+target)
		}
		if err := gw.copyFile(p, target); err != nil {
			return err
		}
	}
	return nil
}

func (gw *Gateway) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(
		out, ratelimit.NewReader(in, gw.cfg.BytesPerSec),
	); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func (gw *Gateway) RmEmptyDirs(
	ctx context.Context, root string, searchPaths []string,
) ([]string, error) {
	rs, err := gw.List(ctx, root)
	if err != nil {
		return nil, err
	}
	dirs := rs.EmptyDirs(searchPaths)
	for _, d := range dirs {
		if err := gw.Rmdir(ctx, d); err != nil {
			return nil, err
		}
	}
	if len(dirs) > 0 {
		gw.lg.Infow("Deleted empty directories.", "dirs", dirs)
	}
	return dirs, nil
}

// `Test()` supports `select -n <filterfile> <src> <dst>`.
func (gw *Gateway) Test(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	if len(args) != 5 || args[0] != "select" || args[1] != "-n" {
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: unsupported dry-run: " + strings.Join(args, " "),
		}, nil
	}
	matches, err := gw.selectFiles(args[2], args[3])
	if err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: TSSC_QUERY_MATCHES_NO_RESULTS",
		}, nil
	case gw.cfg.MaxFiles > 0 && len(matches) > gw.cfg.MaxFiles:
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: TSSC_EXCEEDS_FILE_NUMBER_LIMIT",
		}, nil
	}
	return &massgw.Response{
		Output: fmt.Sprintf("%d files selected", len(matches)),
	}, nil
}

// `Retrieve()` supports `select -i -d <filterfile> <src> <dst>` and
// `filter -i -d <filterfile> <files>... <dst>`.  Files that already exist
// in `dst` are skipped.
func (gw *Gateway) Retrieve(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	if gw.simulated(args...) {
		return &massgw.Response{Output: "SIMULATED"}, nil
	}
	if len(args) < 6 || args[1] != "-i" || args[2] != "-d" {
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: unsupported retrieval: " + strings.Join(args, " "),
		}, nil
	}

	var srcs []string
	dst := args[len(args)-1]
	switch args[0] {
	case "select":
		matches, err := gw.selectFiles(args[3], args[4])
		if err != nil {
			return nil, err
		}
		srcs = matches
	case "filter":
		for _, p := range args[4 : len(args)-1] {
			srcs = append(srcs, gw.local(p))
		}
	default:
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: unsupported retrieval: " + args[0],
		}, nil
	}
	if len(srcs) == 0 {
		return &massgw.Response{
			Code:   2,
			Output: "ERROR: TSSC_QUERY_MATCHES_NO_RESULTS",
		}, nil
	}

	if err := os.MkdirAll(dst, 0777); err != nil {
		return nil, err
	}
	n := 0
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := filepath.Join(dst, filepath.Base(src))
		if exists(target) {
			continue
		}
		if !exists(src) {
			return &massgw.Response{
				Code:   2,
				Output: "ERROR: TSSC_FILE_DOES_NOT_EXIST: " + src,
			}, nil
		}
		if err := gw.copyFile(src, target); err != nil {
			return nil, err
		}
		n++
	}
	return &massgw.Response{
		Output: fmt.Sprintf("%d files retrieved", n),
	}, nil
}

var (
	rgxRange  = regexp.MustCompile(`\["([^"]+)"\.\."([^"]+)"\]`)
	rgxQuoted = regexp.MustCompile(`"([^"]+)"`)
	rgxPPFile = regexp.MustCompile(`(?m)^pp_file=(.*)$`)
)

// `selectFiles()` returns the local paths of the files below `src` that the
// `pp_file` expression of the filter file selects.
func (gw *Gateway) selectFiles(filterFile, src string) ([]string, error) {
	content, err := ioutil.ReadFile(filterFile)
	if err != nil {
		return nil, err
	}
	m := rgxPPFile.FindSubmatch(content)
	if m == nil {
		return nil, nil
	}
	expr := string(m[1])

	var ranges [][2]string
	for _, r := range rgxRange.FindAllStringSubmatch(expr, -1) {
		ranges = append(ranges, [2]string{r[1], r[2]})
	}
	names := make(map[string]bool)
	for _, q := range rgxQuoted.FindAllStringSubmatch(
		rgxRange.ReplaceAllString(expr, ""), -1,
	) {
		names[q[1]] = true
	}

	var matches []string
	root := gw.local(src)
	if !exists(root) {
		return nil, nil
	}
	err = filepath.Walk(root, func(
		lp string, inf os.FileInfo, err error,
	) error {
		if err != nil || inf.IsDir() {
			return err
		}
		name := inf.Name()
		if names[name] {
			matches = append(matches, lp)
			return nil
		}
		for _, r := range ranges {
			if name >= r[0] && name <= r[1] {
				matches = append(matches, lp)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (gw *Gateway) ListTapes(
	ctx context.Context, p string,
) ([]massgw.TapeFile, error) {
	root := gw.local(p)
	tapes, err := ioutil.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []massgw.TapeFile
	for _, tape := range tapes {
		if !tape.IsDir() {
			continue
		}
		ents, err := ioutil.ReadDir(filepath.Join(root, tape.Name()))
		if err != nil {
			return nil, err
		}
		for _, ent := range ents {
			if ent.IsDir() {
				continue
			}
			files = append(files, massgw.TapeFile{
				Tape: tape.Name(),
				Path: path.Join(p, tape.Name(), ent.Name()),
			})
		}
	}
	return files, nil
}

func (gw *Gateway) Info(ctx context.Context) (*massgw.Info, error) {
	return &massgw.Info{
		Available: isDir(gw.cfg.Root),
		Commands: map[string]bool{
			"GET": true, "MDLS": true, "PUT": true,
		},
	}, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	inf, err := os.Stat(p)
	if err != nil {
		return false
	}
	return inf.IsDir()
}
