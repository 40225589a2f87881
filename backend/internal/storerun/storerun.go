// vim: sw=8

// Package `storerun` archives the datasets of a simulation in MASS.
//
// A run removes empty target directories left by earlier runs, lists the
// simulation's archive once, classifies every dataset against its stored
// data, and applies the valid operations one dataset at a time.  Datasets
// whose stored data conflicts with the request are excluded and counted.
// A failing mutation aborts the run; a rerun resumes from the archive.
package storerun

import (
	"context"
	"fmt"

	"github.com/cddsproject/cdds/backend/internal/classify"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/internal/mutate"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
)

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
}

type Config struct {
	ArchiveRoot string
	Request     *dataset.Request
	// `DiagnoseFiles` is the number of leading and trailing file names
	// that the dump of an unknown state shows.
	DiagnoseFiles int
	Simulate      bool
}

// `Input` is a dataset to archive: its identity and the local directory that
// holds its files.
type Input struct {
	dataset.Identity
	Dir string
}

// `BuildDatasets()` creates the descriptors of the inputs.
func BuildDatasets(
	root string,
	req *dataset.Request,
	md metadata.Provider,
	resolver *daterange.Resolver,
	datestamp pubstate.Datestamp,
	inputs []Input,
) ([]*dataset.Descriptor, error) {
	ds := make([]*dataset.Descriptor, 0, len(inputs))
	for _, in := range inputs {
		archivePath, err := dataset.ArchivePath(root, req, md, in.Identity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Identity, err)
		}
		files, err := dataset.CollectFiles(in.Dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Identity, err)
		}
		d, err := dataset.New(
			in.Identity, archivePath, datestamp, files, resolver,
		)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// `Outcome` is the classification of one dataset.
type Outcome struct {
	Dataset *dataset.Descriptor
	Result  classify.Result
}

type Report struct {
	Valid       []Outcome
	Invalid     []Outcome
	RemovedDirs []string
	Archived    int
}

// `InvalidCount()` is the process exit code of a store run.
func (r *Report) InvalidCount() int {
	return len(r.Invalid)
}

type Runner struct {
	lg       Logger
	gw       massgw.Gateway
	mut      *mutate.Mutator
	resolver *daterange.Resolver
	cfg      Config
}

func New(
	lg Logger,
	gw massgw.Gateway,
	mut *mutate.Mutator,
	resolver *daterange.Resolver,
	cfg Config,
) *Runner {
	if cfg.DiagnoseFiles <= 0 {
		cfg.DiagnoseFiles = 3
	}
	return &Runner{
		lg:       lg,
		gw:       gw,
		mut:      mut,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (r *Runner) simulationPath() string {
	return r.cfg.Request.SimulationPath(r.cfg.ArchiveRoot)
}

// `Cleanup()` removes empty directories below the simulation path that
// belong to the target directories of `ds`.
func (r *Runner) Cleanup(
	ctx context.Context, ds []*dataset.Descriptor,
) ([]string, error) {
	root := r.simulationPath()
	search := make([]string, 0, len(ds))
	for _, d := range ds {
		search = append(search, d.TargetPath())
	}
	r.lg.Infow("Removing empty directories.", "root", root)
	removed, err := r.gw.RmEmptyDirs(ctx, root, search)
	if err != nil {
		return nil, fmt.Errorf("failed to clean up `%s`: %w", root, err)
	}
	for _, p := range removed {
		r.lg.Debugw("Removed empty directory.", "path", p)
	}
	return removed, nil
}

// `Classify()` lists the simulation path once and classifies every dataset.
// It records the index and state in each descriptor.
func (r *Runner) Classify(
	ctx context.Context, ds []*dataset.Descriptor,
) (*Report, error) {
	root := r.simulationPath()
	r.lg.Infow(
		"Checking the status of previously stored data.",
		"root", root,
	)
	rs, err := r.gw.List(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list `%s`: %w", root, err)
	}

	tree := rs.Tree()
	rep := &Report{}
	for _, d := range ds {
		idx := pubstate.BuildIndex(d.ArchivePath, tree)
		if err := d.SetIndex(idx); err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		res := classify.Classify(d, idx, r.resolver)
		if err := d.SetOpState(res.State); err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		o := Outcome{Dataset: d, Result: res}
		if res.State.Valid() {
			r.lg.Debugw(
				"Classified dataset.",
				"dataset", d.String(),
				"datasetId", d.ID().String(),
				"state", res.String(),
			)
			rep.Valid = append(rep.Valid, o)
		} else {
			rep.Invalid = append(rep.Invalid, o)
		}
	}

	for _, o := range rep.Invalid {
		d := o.Dataset
		kv := []interface{}{
			"dataset", d.String(),
			"datasetId", d.ID().String(),
			"state", o.Result.String(),
			"reason", o.Result.State.Description(),
			"critical", true,
		}
		if o.Result.State == dataset.OpUnknown {
			kv = append(kv, "diff", classify.Diagnose(
				d, d.Index(), r.cfg.DiagnoseFiles,
			))
		}
		r.lg.Errorw("Unable to process dataset due to invalid MASS state.", kv...)
	}
	r.lg.Infow(
		"Compared datasets to data in MASS.",
		"valid", len(rep.Valid),
		"criticalIssues", len(rep.Invalid),
	)
	return rep, nil
}

// `Run()` cleans up, classifies, and archives.  It returns the report
// together with the first mutation error, which aborts the run.
func (r *Runner) Run(
	ctx context.Context, ds []*dataset.Descriptor,
) (*Report, error) {
	removed, err := r.Cleanup(ctx, ds)
	if err != nil {
		return nil, err
	}
	rep, err := r.Classify(ctx, ds)
	if err != nil {
		return nil, err
	}
	rep.RemovedDirs = removed

	for _, o := range rep.Valid {
		if err := r.mut.Apply(ctx, o.Dataset); err != nil {
			return rep, err
		}
		rep.Archived++
	}

	if r.cfg.Simulate {
		r.lg.Infow("Archiving simulation complete.", "datasets", rep.Archived)
	} else {
		r.lg.Infow("Archiving complete.", "datasets", rep.Archived)
	}
	return rep, nil
}
