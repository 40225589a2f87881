package extractrun

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/chunker"
	"github.com/cddsproject/cdds/backend/internal/daterange"
)

const DefaultSubstream = "default"

var ErrNoMatchingFiles = errors.New("no matching files found")

// `NCRegexp()` matches netCDF file names like
// `nemo_abcdeo_1m_20000101-20000201_grid-T.nc`.  Submatches are the model
// component, start date, end date, and substream.  The default substream
// matches any component and an optional substream.
func NCRegexp(substream string) *regexp.Regexp {
	component := `([a-z]+)`
	sub := `([a-zA-Z0-9\-]+){0,1}`
	sep := `_{0,1}`
	if substream != DefaultSubstream {
		component = `(nemo|medusa)`
		sub = "(" + regexp.QuoteMeta(substream) + ")"
		sep = "_"
	}
	return regexp.MustCompile(
		component + `_.{5}[io]_.{2}_(\d{8})-(\d{8})` + sep + sub + `\.nc$`,
	)
}

// `NCFilter()` returns the content of a filter file for `moo filter`.
func NCFilter(lines []string) string {
	return "-a\n" + strings.Join(lines, "\n")
}

func (r *Runner) planNC(ctx context.Context, s *Stream) ([]Request, error) {
	files, err := r.gw.ListTapes(ctx, s.Source)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.Name, err)
	}
	r.lg.Infow("Listed stream.", "stream", s.Name, "files", len(files))
	if len(files) == 0 {
		return nil, fmt.Errorf("stream %s: %w", s.Name, ErrNoMatchingFiles)
	}
	if len(s.Substreams) == 0 {
		return nil, fmt.Errorf(
			"stream %s: no matching variables to retrieve", s.Name,
		)
	}

	subs := make([]string, 0, len(s.Substreams))
	for sub := range s.Substreams {
		subs = append(subs, sub)
	}
	sort.Strings(subs)

	g := chunker.Grouper{MaxTapes: r.cfg.MaxTapes, MaxFiles: r.cfg.MaxFiles}
	var reqs []Request
	for _, sub := range subs {
		ff, err := r.writeFilter(
			fmt.Sprintf("%s_%ss.dff", s.Name, sub),
			NCFilter(s.Substreams[sub]),
		)
		if err != nil {
			return nil, err
		}

		rgx := NCRegexp(sub)
		var cands []chunker.Candidate
		found := 0
		for _, f := range files {
			m := rgx.FindStringSubmatch(path.Base(f.Path))
			if m == nil {
				continue
			}
			found++
			start, err := daterange.ParseStamp(m[2], 8)
			if err != nil {
				return nil, fmt.Errorf("file `%s`: %w", f.Path, err)
			}
			end, err := daterange.ParseStamp(m[3], 8)
			if err != nil {
				return nil, fmt.Errorf("file `%s`: %w", f.Path, err)
			}
			if start < s.Start || end > s.End {
				continue
			}
			cands = append(cands, chunker.Candidate{
				Filename:  f.Path,
				Timepoint: start,
				Location:  f.Tape,
			})
		}
		if found == 0 {
			r.lg.Warnw(
				"No files match substream.",
				"stream", s.Name,
				"substream", sub,
			)
			continue
		}
		r.lg.Infow(
			"Grouping files by tape.",
			"stream", s.Name,
			"substream", sub,
			"files", len(cands),
			"maxTapes", r.cfg.MaxTapes,
			"maxFiles", r.cfg.MaxFiles,
		)

		for _, c := range g.Group(cands) {
			args := append([]string{"filter", "-i", "-d", ff}, c.Filenames()...)
			args = append(args, r.targetDir(s))
			first, last := c.First().Timepoint, c.First().Timepoint
			for _, cand := range c.Candidates {
				if cand.Timepoint < first {
					first = cand.Timepoint
				}
				if cand.Timepoint > last {
					last = cand.Timepoint
				}
			}
			reqs = append(reqs, Request{
				Stream:     s.Name,
				FilterFile: ff,
				Args:       args,
				First:      first,
				Last:       last,
				NFiles:     len(c.Candidates),
			})
		}
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("stream %s: %w", s.Name, ErrNoMatchingFiles)
	}
	return reqs, nil
}
