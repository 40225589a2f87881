// vim: sw=8

// Package `pubstate` models what is archived for a dataset: publication
// states, datestamp versions, and the `Index` that maps both to archived
// files.
//
// The archive layout below a dataset's archive path is
// `<state>/<datestamp>/<file>`.  The index is built from a single recursive
// listing and never persisted; the archive is the only source of truth.
package pubstate

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cddsproject/cdds/backend/internal/massgw"
)

type State int

const (
	StateUnspecified State = iota
	Embargoed
	Available
	Superseded
	Withdrawn
)

// `States` lists the publication states in a fixed order.
var States = []State{Embargoed, Available, Superseded, Withdrawn}

// `Dir()` returns the directory name of the state in the archive.
func (s State) Dir() string {
	switch s {
	case Embargoed:
		return "embargoed"
	case Available:
		return "available"
	case Superseded:
		return "superseded"
	case Withdrawn:
		return "withdrawn"
	default:
		panic("invalid publication state")
	}
}

func (s State) String() string {
	switch s {
	case StateUnspecified:
		return "UNSPECIFIED"
	default:
		return strings.ToUpper(s.Dir())
	}
}

func ParseDir(name string) (State, bool) {
	for _, s := range States {
		if s.Dir() == name {
			return s, true
		}
	}
	return StateUnspecified, false
}

// `Datestamp` identifies one archived version of a dataset.  Its format is
// `vYYYYMMDD`.
type Datestamp string

const datestampLayout = "v20060102"

func ParseDatestamp(s string) (Datestamp, error) {
	if _, err := time.Parse(datestampLayout, s); err != nil {
		return "", fmt.Errorf("invalid datestamp `%s`", s)
	}
	return Datestamp(s), nil
}

func DatestampFromTime(t time.Time) Datestamp {
	return Datestamp(t.Format(datestampLayout))
}

// `Index` maps state to datestamp to archived file paths.  A state that is
// present has a non-nil version map, which may be empty.  A version that is
// present has a file list, which may be empty.
type Index struct {
	states map[State]map[Datestamp][]string
}

func NewIndex() *Index {
	return &Index{states: make(map[State]map[Datestamp][]string)}
}

// `BuildIndex()` builds the index of the dataset at `archivePath` from
// a listing tree, which may contain records of other datasets.  Directories
// below a state directory whose names are not datestamps are ignored.
func BuildIndex(archivePath string, tree *massgw.Tree) *Index {
	idx := NewIndex()
	for _, s := range States {
		statePath := path.Join(archivePath, s.Dir())
		r, ok := tree.Get(statePath)
		if !ok || !r.IsDir {
			continue
		}
		idx.AddState(s)
		for _, v := range tree.Children(statePath) {
			ds, err := ParseDatestamp(path.Base(v.Path))
			if err != nil || !v.IsDir {
				continue
			}
			idx.AddVersion(s, ds)
			for _, f := range tree.Children(v.Path) {
				if !f.IsDir {
					idx.AddFile(s, ds, f.Path)
				}
			}
		}
	}
	return idx
}

func (idx *Index) AddState(s State) {
	if _, ok := idx.states[s]; !ok {
		idx.states[s] = make(map[Datestamp][]string)
	}
}

func (idx *Index) AddVersion(s State, ds Datestamp) {
	idx.AddState(s)
	if _, ok := idx.states[s][ds]; !ok {
		idx.states[s][ds] = []string{}
	}
}

func (idx *Index) AddFile(s State, ds Datestamp, p string) {
	idx.AddVersion(s, ds)
	idx.states[s][ds] = append(idx.states[s][ds], p)
}

func (idx *Index) HasState(s State) bool {
	_, ok := idx.states[s]
	return ok
}

func (idx *Index) HasVersion(s State, ds Datestamp) bool {
	_, ok := idx.states[s][ds]
	return ok
}

// `Versions()` returns the datestamps of a state in ascending order.
func (idx *Index) Versions(s State) []Datestamp {
	vs := make([]Datestamp, 0, len(idx.states[s]))
	for ds := range idx.states[s] {
		vs = append(vs, ds)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

func (idx *Index) Files(s State, ds Datestamp) []string {
	return idx.states[s][ds]
}

// `StateFiles()` returns the files of all versions of a state, ordered by
// version.
func (idx *Index) StateFiles(s State) []string {
	var fs []string
	for _, ds := range idx.Versions(s) {
		fs = append(fs, idx.states[s][ds]...)
	}
	return fs
}

// `HasFiles()` reports whether any version of the state holds a file.
func (idx *Index) HasFiles(s State) bool {
	for _, fs := range idx.states[s] {
		if len(fs) > 0 {
			return true
		}
	}
	return false
}

func (idx *Index) NumFiles() int {
	n := 0
	for _, s := range States {
		for _, fs := range idx.states[s] {
			n += len(fs)
		}
	}
	return n
}

// `IsEmpty()` reports whether the index has no states at all.
func (idx *Index) IsEmpty() bool {
	return len(idx.states) == 0
}
