// vim: sw=8

// Package `massgw` contains the interface through which the archive and
// extract packages talk to the MASS tape archive, together with the parts of
// the `moo` protocol that every implementation shares: listing records and
// the error taxonomy.
//
// Implementations:
//
//  - `massgw/moogw` runs the `moo` client, or simulates it;
//  - `massgw/localgw` emulates MASS in a local directory.
//
package massgw

import "context"

// `Gateway` is the capability set that the archive and extract packages
// consume.  All operations are synchronous.  Operations that modify the
// archive are no-ops that succeed when the gateway is simulating.
type Gateway interface {
	// `List()` returns a full recursive listing of `path`.  A path that
	// does not exist yields an empty listing without error.
	List(ctx context.Context, path string) (Records, error)

	// `Move()` moves archived `paths` into the directory `dest`.
	Move(ctx context.Context, paths []string, dest string, opts MoveOptions) error

	Mkdir(ctx context.Context, dest string, opts MkdirOptions) error

	// `Rmdir()` removes the empty directory `dest`.
	Rmdir(ctx context.Context, dest string) error

	// `Put()` archives the local files `paths` into the directory `dest`.
	Put(ctx context.Context, paths []string, dest string, opts PutOptions) error

	// `RmEmptyDirs()` removes all empty directories below `root` whose
	// path contains one of `searchPaths`, deepest first.  An empty
	// `searchPaths` selects all directories.  It returns the removed
	// paths.
	RmEmptyDirs(ctx context.Context, root string, searchPaths []string) ([]string, error)

	// `Test()` runs a dry-run command, like `select -n`, and returns the
	// raw exit code and output.  It never simulates, since its response
	// drives planning.  A non-zero exit code is not an error; callers
	// classify the response with `extract/chunker.ClassifyResponse()`.
	Test(ctx context.Context, args []string) (*Response, error)

	// `Retrieve()` runs a retrieval command, like `select` or `filter`,
	// and returns the raw response.
	Retrieve(ctx context.Context, args []string) (*Response, error)

	// `ListTapes()` lists the files below `path` together with the tape
	// that holds each file.
	ListTapes(ctx context.Context, path string) ([]TapeFile, error)

	// `Info()` reports whether MASS accepts commands and which command
	// classes are enabled.
	Info(ctx context.Context) (*Info, error)
}

type MoveOptions struct {
	// `CheckLocation` creates `dest` with parents before moving.
	CheckLocation bool
}

type MkdirOptions struct {
	Parents bool
	ExistOK bool
}

type PutOptions struct {
	// `CheckLocation` creates `dest` with parents before putting.
	CheckLocation bool
}

// `Response` is the raw outcome of a `moo` command.
type Response struct {
	Code   int
	Output string
}

type TapeFile struct {
	Tape string
	Path string
}

type Info struct {
	Available bool
	Commands  map[string]bool
}

// `Enabled()` reports whether the command class, like `GET` or `PUT`, is
// enabled.  Unknown classes are treated as enabled.
func (i *Info) Enabled(class string) bool {
	en, ok := i.Commands[class]
	if !ok {
		return true
	}
	return en
}
