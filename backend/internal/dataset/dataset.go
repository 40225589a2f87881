// vim: sw=8

// Package `dataset` contains the descriptor of a dataset that a store run
// archives, and the archive path conventions.
//
// A `Descriptor` is created once per request and variable.  Its identity is
// fixed at creation.  The stored data index and the operation state are each
// set exactly once during the run.
package dataset

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/cddsproject/cdds/backend/pkg/uuid"
)

var ErrIndexAlreadySet = errors.New("stored data index already set")
var ErrOpStateAlreadySet = errors.New("operation state already set")
var ErrNoFiles = errors.New("no files to archive")

// `Request` identifies the simulation whose output is archived.
type Request struct {
	MipEra      string
	Mip         string
	Institution string
	Model       string
	Experiment  string
	Variant     string
}

// `SimulationPath()` returns the archive directory of the simulation below
// `root`: `<root>/<mipEra>/<mip>/<institution>/<model>/<experiment>/<variant>`.
func (r *Request) SimulationPath(root string) string {
	return path.Join(
		root, r.MipEra, r.Mip, r.Institution, r.Model, r.Experiment,
		r.Variant,
	)
}

type Identity struct {
	MipTable  string
	Variable  string
	Frequency string
	Stream    string
}

func (id Identity) String() string {
	return id.MipTable + "/" + id.Variable
}

// `ArchivePath()` returns `<simulation path>/<mipTable>/<variable>/<grid>`.
func ArchivePath(
	root string, req *Request, md metadata.Provider, id Identity,
) (string, error) {
	grid, err := md.GridLabel(req.Model, id.MipTable, id.Variable)
	if err != nil {
		return "", err
	}
	return path.Join(
		req.SimulationPath(root), id.MipTable, id.Variable, grid,
	), nil
}

type Descriptor struct {
	Identity
	ArchivePath  string
	NewDatestamp pubstate.Datestamp
	// `Files` are the local paths of the files to archive.
	Files     []string
	DateRange daterange.Range

	index   *pubstate.Index
	opState OpState
}

// `New()` creates a descriptor and resolves the date range of its files.
func New(
	id Identity,
	archivePath string,
	datestamp pubstate.Datestamp,
	files []string,
	resolver *daterange.Resolver,
) (*Descriptor, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNoFiles)
	}
	rg, err := resolver.Resolve(files, id.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &Descriptor{
		Identity:     id,
		ArchivePath:  archivePath,
		NewDatestamp: datestamp,
		Files:        files,
		DateRange:    rg,
	}, nil
}

// `ID()` is a stable id derived from the archive path.
func (d *Descriptor) ID() uuid.I {
	return uuid.DatasetID(d.ArchivePath)
}

func (d *Descriptor) SetIndex(idx *pubstate.Index) error {
	if d.index != nil {
		return ErrIndexAlreadySet
	}
	d.index = idx
	return nil
}

// `Index()` returns nil until `SetIndex()`.
func (d *Descriptor) Index() *pubstate.Index {
	return d.index
}

func (d *Descriptor) SetOpState(s OpState) error {
	if d.opState != OpUnspecified {
		return ErrOpStateAlreadySet
	}
	d.opState = s
	return nil
}

func (d *Descriptor) OpState() OpState {
	return d.opState
}

// `VersionPath()` returns `<archive path>/<state>/<datestamp>`.
func (d *Descriptor) VersionPath(
	s pubstate.State, ds pubstate.Datestamp,
) string {
	return path.Join(d.ArchivePath, s.Dir(), string(ds))
}

// `TargetPath()` is the directory that receives the files: the new
// datestamp below `embargoed`.
func (d *Descriptor) TargetPath() string {
	return d.VersionPath(pubstate.Embargoed, d.NewDatestamp)
}

// `ManifestName()` is the name of the supersession manifest.
func (d *Descriptor) ManifestName() string {
	return fmt.Sprintf("%s_%s_superseded.log", d.MipTable, d.Variable)
}

// `CollectFiles()` returns the sorted paths of the `.nc` files in `dir`.
func CollectFiles(dir string) ([]string, error) {
	ents, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".nc") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
