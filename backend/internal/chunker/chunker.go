// vim: sw=8

// Package `chunker` splits retrieval requests into chunks that MASS accepts.
//
// MASS rejects requests that exceed limits on data volume, file count, or
// the number of tapes that the request spans.  The limits depend on how the
// data is laid out on tape and cannot be predicted.
//
// `Bisector` discovers them empirically: it dry-runs a chunk, and splits it
// at its midpoint if MASS reports that a limit is exceeded.  The number of
// dry runs is bounded.  `Grouper` is used when the tape of every file is
// known from a listing: it groups files deterministically by tape.
//
// `Bisector` preserves order: the concatenation of its chunks is the input
// list.  `Grouper` keeps the order of files on each tape, but emits tapes in
// order of their first appearance, so files of interleaved tapes are
// regrouped.
package chunker

import (
	"context"
	"errors"
	"fmt"

	"github.com/cddsproject/cdds/backend/internal/daterange"
)

const DefaultMaxCalls = 20

var ErrEmpty = errors.New("no candidates")

// `Candidate` is a file that a retrieval is expected to find.
type Candidate struct {
	Filename  string
	Timepoint daterange.Date
	// `Location` is the tape that holds the file, if known.
	Location string
}

// `Chunk` is a contiguous run of candidates together with the filter that
// selects them.
type Chunk struct {
	Candidates []Candidate
	Filter     string
}

func (c *Chunk) First() Candidate { return c.Candidates[0] }
func (c *Chunk) Last() Candidate  { return c.Candidates[len(c.Candidates)-1] }

func (c *Chunk) Filenames() []string {
	names := make([]string, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		names = append(names, cand.Filename)
	}
	return names
}

type Verdict int

const (
	VerdictUnspecified Verdict = iota
	VerdictOK
	VerdictTooLarge
	VerdictNoData
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictTooLarge:
		return "too large"
	case VerdictNoData:
		return "no data"
	case VerdictRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

// `Validator` dry-runs the retrieval of a chunk.  A returned error is a
// transport failure, which aborts chunking.
type Validator interface {
	Validate(ctx context.Context, c *Chunk) (Verdict, string, error)
}

type ValidatorFunc func(ctx context.Context, c *Chunk) (Verdict, string, error)

func (f ValidatorFunc) Validate(
	ctx context.Context, c *Chunk,
) (Verdict, string, error) {
	return f(ctx, c)
}

// `BudgetError` reports that bisection needed more dry runs than allowed,
// which indicates a data or query problem rather than a capacity problem.
type BudgetError struct {
	Calls int
	Max   int
}

func (err *BudgetError) Error() string {
	return fmt.Sprintf(
		"chunking did not converge within %d dry runs", err.Max,
	)
}

// `NoDataError` reports a chunk for which MASS found no data.  Splitting
// cannot fix that.
type NoDataError struct {
	First, Last string
	Msg         string
}

func (err *NoDataError) Error() string {
	return fmt.Sprintf(
		"no data found for %s..%s: %s", err.First, err.Last, err.Msg,
	)
}

type RejectedError struct {
	First, Last string
	Msg         string
}

func (err *RejectedError) Error() string {
	return fmt.Sprintf(
		"dry run rejected for %s..%s: %s", err.First, err.Last, err.Msg,
	)
}

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
}

type Bisector struct {
	lg Logger
	// `MaxCalls` bounds the number of dry runs.  Zero means
	// `DefaultMaxCalls`.
	MaxCalls int
	// `Render` returns the filter text for candidates.  If nil, chunks
	// have an empty filter.
	Render func(cands []Candidate) (string, error)
}

func NewBisector(lg Logger, maxCalls int) *Bisector {
	return &Bisector{lg: lg, MaxCalls: maxCalls}
}

// `Chunk()` returns chunks that each validated as ok, in candidate order.
// It processes an explicit stack of pending ranges, left half first.  Empty
// halves are dropped without a dry run.
func (b *Bisector) Chunk(
	ctx context.Context, cands []Candidate, v Validator,
) ([]Chunk, error) {
	if len(cands) == 0 {
		return nil, ErrEmpty
	}
	maxCalls := b.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}

	type span struct{ lo, hi int }
	stack := []span{{0, len(cands)}}
	var chunks []Chunk
	calls := 0
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.lo == s.hi {
			continue
		}

		calls++
		if calls > maxCalls {
			return nil, &BudgetError{Calls: calls, Max: maxCalls}
		}

		c := Chunk{Candidates: cands[s.lo:s.hi]}
		if b.Render != nil {
			f, err := b.Render(c.Candidates)
			if err != nil {
				return nil, err
			}
			c.Filter = f
		}
		verdict, msg, err := v.Validate(ctx, &c)
		if err != nil {
			return nil, err
		}
		b.lg.Debugw(
			"Validated chunk.",
			"first", c.First().Timepoint.String(),
			"last", c.Last().Timepoint.String(),
			"n", len(c.Candidates),
			"verdict", verdict.String(),
		)

		switch verdict {
		case VerdictOK:
			b.lg.Infow(
				"Accepted chunk.",
				"first", c.First().Timepoint.String(),
				"last", c.Last().Timepoint.String(),
				"n", len(c.Candidates),
			)
			chunks = append(chunks, c)
		case VerdictTooLarge:
			mid := s.lo + (s.hi-s.lo)/2
			stack = append(stack, span{mid, s.hi}, span{s.lo, mid})
		case VerdictNoData:
			return nil, &NoDataError{
				First: c.First().Filename,
				Last:  c.Last().Filename,
				Msg:   msg,
			}
		default:
			return nil, &RejectedError{
				First: c.First().Filename,
				Last:  c.Last().Filename,
				Msg:   msg,
			}
		}
	}
	return chunks, nil
}
