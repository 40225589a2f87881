package classify

import (
	"fmt"
	"path"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
)

// `Diagnose()` returns a diff-style dump that helps an operator triage a
// conflict: the first and last `n` incoming file names, followed by the
// first and last `n` stored file names of every stored version.
func Diagnose(d *dataset.Descriptor, idx *pubstate.Index, n int) string {
	var b strings.Builder
	fmt.Fprintf(
		&b, "--- incoming %s %s (%d files, %s)\n",
		d, d.NewDatestamp, len(d.Files), d.DateRange,
	)
	writeEnds(&b, "-", d.Files, n)

	for _, s := range pubstate.States {
		for _, ds := range idx.Versions(s) {
			fs := idx.Files(s, ds)
			fmt.Fprintf(
				&b, "+++ stored %s/%s (%d files)\n",
				s.Dir(), ds, len(fs),
			)
			writeEnds(&b, "+", fs, n)
		}
	}
	return b.String()
}

func writeEnds(b *strings.Builder, prefix string, files []string, n int) {
	if len(files) <= 2*n {
		for _, f := range files {
			fmt.Fprintf(b, "%s %s\n", prefix, path.Base(f))
		}
		return
	}
	for _, f := range files[:n] {
		fmt.Fprintf(b, "%s %s\n", prefix, path.Base(f))
	}
	fmt.Fprintf(b, "%s ... %d more\n", prefix, len(files)-2*n)
	for _, f := range files[len(files)-n:] {
		fmt.Fprintf(b, "%s %s\n", prefix, path.Base(f))
	}
}
