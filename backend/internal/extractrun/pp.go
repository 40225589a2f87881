package extractrun

import (
	"context"
	"fmt"

	"github.com/cddsproject/cdds/backend/internal/chunker"
	"github.com/cddsproject/cdds/backend/internal/daterange"
)

func compactDate(d daterange.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year(), d.Month(), d.Day())
}

// `dryRun` validates chunks with `moo select -n`, using a single test
// filter file that it rewrites for every chunk.
type dryRun struct {
	r *Runner
	s *Stream
}

func (v *dryRun) Validate(
	ctx context.Context, c *chunker.Chunk,
) (chunker.Verdict, string, error) {
	ff, err := v.r.writeFilter(v.s.Name+"_test.dff", c.Filter)
	if err != nil {
		return chunker.VerdictUnspecified, "", err
	}
	resp, err := v.r.gw.Test(ctx, []string{
		"select", "-n", ff, v.s.Source, v.r.targetDir(v.s),
	})
	if err != nil {
		return chunker.VerdictUnspecified, "", err
	}
	st := chunker.ClassifyResponse(resp)
	return st.Verdict(), st.Msg, nil
}

func (r *Runner) planPP(ctx context.Context, s *Stream) ([]Request, error) {
	cands, err := chunker.PPCandidates(
		r.cfg.SuiteID, s.Name, s.Start, s.End, s.FileFrequency,
	)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.Name, err)
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("stream %s: %w", s.Name, chunker.ErrEmpty)
	}
	r.lg.Infow(
		"Chunking pp stream.",
		"stream", s.Name,
		"files", len(cands),
		"start", s.Start.String(),
		"end", s.End.String(),
	)

	b := chunker.NewBisector(r.lg, r.cfg.MaxCalls)
	b.Render = func(cs []chunker.Candidate) (string, error) {
		ppFile, err := chunker.PPFileString(cs, s.FileFrequency)
		if err != nil {
			return "", err
		}
		return chunker.PPFilter(ppFile, s.StashFilter), nil
	}
	chunks, err := b.Chunk(ctx, cands, &dryRun{r: r, s: s})
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.Name, err)
	}

	reqs := make([]Request, 0, len(chunks))
	for _, c := range chunks {
		first, last := c.First().Timepoint, c.Last().Timepoint
		ff, err := r.writeFilter(fmt.Sprintf(
			"%s_%s_%s.dff", s.Name, compactDate(first), compactDate(last),
		), c.Filter)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, Request{
			Stream:     s.Name,
			FilterFile: ff,
			Args: []string{
				"select", "-i", "-d", ff, s.Source, r.targetDir(s),
			},
			First:  first,
			Last:   last,
			NFiles: len(c.Candidates),
		})
	}
	return reqs, nil
}
