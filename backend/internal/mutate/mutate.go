// vim: sw=8

// Package `mutate` applies the archive operation that classification chose
// for a dataset.
//
// Appending and prepending to available data first moves the available
// files into the new embargoed version, records the move in a supersession
// manifest below `superseded/<old datestamp>`, and removes the old
// directory.  Extending embargoed data happens in place.  Every valid
// operation then creates the target directory and puts the incoming files
// that it does not already hold.
//
// Each step removes a source only after the gateway confirmed the write of
// its destination.  A crash leaves the archive in a state that the next
// run's classification accepts.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/cddsproject/cdds/backend/pkg/ulid"
	"github.com/cddsproject/cdds/backend/pkg/uuid"
)

var ErrInvalidState = errors.New("operation state does not permit archiving")
var ErrMissingIndex = errors.New("missing stored data index")

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
}

type Step int

const (
	StepUnspecified Step = iota
	StepMove
	StepManifest
	StepRmdir
	StepMkdir
	StepPut
)

func (s Step) String() string {
	switch s {
	case StepMove:
		return "move"
	case StepManifest:
		return "manifest"
	case StepRmdir:
		return "rmdir"
	case StepMkdir:
		return "mkdir"
	case StepPut:
		return "put"
	default:
		return "unspecified"
	}
}

// `StepError` tells which step of a mutation failed.  Earlier steps have
// completed.
type StepError struct {
	Dataset string
	Step    Step
	Err     error
}

func (err *StepError) Error() string {
	return fmt.Sprintf(
		"dataset %s: %s failed: %v", err.Dataset, err.Step, err.Err,
	)
}

func (err *StepError) Unwrap() error {
	return err.Err
}

type Config struct {
	// `TmpDir` holds manifests until they are put.  Empty means the
	// system default.
	TmpDir string
	RunID  ulid.I
}

type Mutator struct {
	lg    Logger
	gw    massgw.Gateway
	tmp   string
	runID ulid.I
}

func New(lg Logger, gw massgw.Gateway, cfg Config) *Mutator {
	return &Mutator{
		lg:    lg,
		gw:    gw,
		tmp:   cfg.TmpDir,
		runID: cfg.RunID,
	}
}

// `Apply()` requires that `d` has an index and a valid operation state.
func (m *Mutator) Apply(ctx context.Context, d *dataset.Descriptor) error {
	idx := d.Index()
	if idx == nil {
		return &StepError{Dataset: d.String(), Err: ErrMissingIndex}
	}
	op := d.OpState()
	if !op.Valid() {
		return &StepError{
			Dataset: d.String(),
			Err:     fmt.Errorf("%w: %s", ErrInvalidState, op),
		}
	}

	m.lg.Infow(
		"Archiving dataset.",
		"dataset", d.String(),
		"datasetId", d.ID().String(),
		"mode", op.Description(),
		"target", d.TargetPath(),
	)

	switch op {
	case dataset.OpAppending, dataset.OpPrepending:
		if err := m.moveAvailable(ctx, d, idx); err != nil {
			return err
		}
	}

	files := FilterArchived(d.Files, idx.Files(pubstate.Embargoed, d.NewDatestamp))
	if n := len(d.Files) - len(files); n > 0 {
		m.lg.Infow(
			"Skipping files already archived.",
			"dataset", d.String(),
			"n", n,
		)
	}

	target := d.TargetPath()
	if err := m.gw.Mkdir(ctx, target, massgw.MkdirOptions{
		Parents: true,
		ExistOK: true,
	}); err != nil {
		return &StepError{Dataset: d.String(), Step: StepMkdir, Err: err}
	}
	if len(files) == 0 {
		m.lg.Infow("All files already archived.", "dataset", d.String())
		return nil
	}
	if err := m.gw.Put(ctx, files, target, massgw.PutOptions{
		CheckLocation: false,
	}); err != nil {
		return &StepError{Dataset: d.String(), Step: StepPut, Err: err}
	}
	m.lg.Infow(
		"Archived files.",
		"dataset", d.String(),
		"n", len(files),
		"target", target,
	)
	return nil
}

// `moveAvailable()` moves each available version into the target.  If the
// available state holds no files, the extension is of the target version
// itself, which needs no move.
func (m *Mutator) moveAvailable(
	ctx context.Context, d *dataset.Descriptor, idx *pubstate.Index,
) error {
	if !idx.HasFiles(pubstate.Available) {
		m.lg.Debugw(
			"Extending embargoed version in place.",
			"dataset", d.String(),
			"target", d.TargetPath(),
		)
		return nil
	}

	target := d.TargetPath()
	for _, old := range idx.Versions(pubstate.Available) {
		files := idx.Files(pubstate.Available, old)
		if len(files) == 0 {
			continue
		}
		m.lg.Infow(
			"Moving files to new datestamp.",
			"dataset", d.String(),
			"from", old,
			"to", d.NewDatestamp,
			"n", len(files),
		)
		if err := m.gw.Move(ctx, files, target, massgw.MoveOptions{
			CheckLocation: true,
		}); err != nil {
			return &StepError{Dataset: d.String(), Step: StepMove, Err: err}
		}

		if err := m.putManifest(ctx, d, old, files); err != nil {
			return &StepError{
				Dataset: d.String(), Step: StepManifest, Err: err,
			}
		}

		oldDir := d.VersionPath(pubstate.Available, old)
		m.lg.Infow("Deleting old directory.", "path", oldDir)
		if err := m.gw.Rmdir(ctx, oldDir); err != nil {
			return &StepError{Dataset: d.String(), Step: StepRmdir, Err: err}
		}
	}
	return nil
}

func (m *Mutator) putManifest(
	ctx context.Context,
	d *dataset.Descriptor,
	old pubstate.Datestamp,
	moved []string,
) error {
	dir, err := ioutil.TempDir(m.tmp, "cdds-manifest-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	body := Manifest(moved, d.TargetPath(), d.ID(), m.runID)
	m.lg.Debugw("Supersession manifest.", "content", body)
	local := filepath.Join(dir, d.ManifestName())
	if err := ioutil.WriteFile(local, []byte(body), 0644); err != nil {
		return err
	}

	dest := d.VersionPath(pubstate.Superseded, old)
	m.lg.Infow("Creating superseded directory with manifest.", "path", dest)
	return m.gw.Put(ctx, []string{local}, dest, massgw.PutOptions{
		CheckLocation: true,
	})
}

// `Manifest()` returns the body of a supersession manifest.  The dataset id
// and run id lines are omitted for `uuid.Nil` and `ulid.Nil`.
func Manifest(
	moved []string, dest string, datasetID uuid.I, runID ulid.I,
) string {
	var b strings.Builder
	b.WriteString(
		"The following files were moved to a new datestamp when " +
			"further data was appended to this dataset:\n",
	)
	b.WriteString("Files moved:\n")
	for _, f := range moved {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("New location:\n")
	b.WriteString(dest)
	b.WriteString("\n")
	if datasetID != uuid.Nil {
		fmt.Fprintf(&b, "Dataset: %s\n", datasetID)
	}
	if runID != ulid.Nil {
		fmt.Fprintf(&b, "Run: %s\n", runID)
		fmt.Fprintf(&b, "Time: %s\n", ulid.TimeString(runID))
	}
	return b.String()
}

// `FilterArchived()` drops the files whose names appear in `archived`.
// Only names are compared, since local and archive directories differ.
func FilterArchived(files, archived []string) []string {
	have := make(map[string]struct{}, len(archived))
	for _, a := range archived {
		have[path.Base(a)] = struct{}{}
	}
	var rest []string
	for _, f := range files {
		if _, ok := have[filepath.Base(f)]; ok {
			continue
		}
		rest = append(rest, f)
	}
	return rest
}
