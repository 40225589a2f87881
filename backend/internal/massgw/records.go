package massgw

import (
	"sort"
	"strings"
)

// `Record` is one entry of a recursive `moo ls -Rl` listing.
type Record struct {
	Path   string
	Parent string
	IsDir  bool
	// `Empty` is true for directories that contain neither files nor
	// non-empty directories.  Files are never empty.
	Empty bool
}

// `Records` maps record paths to records.
type Records map[string]*Record

func NewRecord(path string, isDir bool) *Record {
	parent := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		parent = path[:i]
	}
	return &Record{
		Path:   path,
		Parent: parent,
		IsDir:  isDir,
		Empty:  true,
	}
}

// `ParseListing()` parses the output of `moo ls -Rl`.  The first field of a
// line is the media type, `D` for directories; the last field is the path.
func ParseListing(out string) Records {
	rs := make(Records)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		r := NewRecord(fields[len(fields)-1], fields[0] == "D")
		rs[r.Path] = r
	}
	rs.UpdateEmpty()
	return rs
}

// `Add()` inserts a record.  Call `UpdateEmpty()` after the last `Add()`.
func (rs Records) Add(r *Record) {
	rs[r.Path] = r
}

// `UpdateEmpty()` recomputes the `Empty` flags bottom up.
func (rs Records) UpdateEmpty() {
	paths := rs.sortedPaths()
	sort.SliceStable(paths, func(i, j int) bool {
		return len(paths[i]) > len(paths[j])
	})

	for _, r := range rs {
		r.Empty = r.IsDir
	}
	for _, p := range paths {
		r := rs[p]
		if r.IsDir && r.Empty {
			continue
		}
		if parent, ok := rs[r.Parent]; ok && parent != r {
			parent.Empty = false
		}
	}
}

// `Tree` indexes a listing by parent directory.  Children are sorted by
// path.
type Tree struct {
	records  Records
	children map[string][]*Record
}

// `Tree()` sorts the listing once and groups it by parent.  Build the tree
// after the last `Add()`.
func (rs Records) Tree() *Tree {
	t := &Tree{
		records:  rs,
		children: make(map[string][]*Record),
	}
	for _, p := range rs.sortedPaths() {
		r := rs[p]
		if r.Parent == r.Path {
			continue
		}
		t.children[r.Parent] = append(t.children[r.Parent], r)
	}
	return t
}

func (t *Tree) Get(path string) (*Record, bool) {
	r, ok := t.records[path]
	return r, ok
}

// `Children()` returns the direct children of `parent`, sorted by path.
func (t *Tree) Children(parent string) []*Record {
	return t.children[parent]
}

// `EmptyDirs()` returns the empty directories whose path contains one of
// `searchPaths`, or all empty directories if `searchPaths` is empty.  Longer
// paths come first, so that removing them in order never hits a non-empty
// directory.
func (rs Records) EmptyDirs(searchPaths []string) []string {
	var dirs []string
	for _, p := range rs.sortedPaths() {
		r := rs[p]
		if !r.IsDir || !r.Empty {
			continue
		}
		if len(searchPaths) > 0 && !containsAny(p, searchPaths) {
			continue
		}
		dirs = append(dirs, p)
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return len(dirs[i]) > len(dirs[j])
	})
	return dirs
}

func (rs Records) sortedPaths() []string {
	paths := make([]string, 0, len(rs))
	for p := range rs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
