// vim: sw=8

// Package `classify` decides which archive operation the stored data of a
// dataset permits.
//
// Classification is an ordered chain of checkers.  Each checker inspects the
// dataset descriptor and the stored data index and either returns an
// operation state or passes.  The first checker that returns a state wins.
// Checks for conflicts come before checks for valid operations.  If no
// checker matches, the result is `OpUnknown`, which is a conflict.
//
// Classification has no side effects.  The caller records the result with
// `Descriptor.SetOpState()`.
package classify

import (
	"fmt"

	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
)

// `Input` is what a checker inspects.
type Input struct {
	Dataset  *dataset.Descriptor
	Index    *pubstate.Index
	Resolver *daterange.Resolver
}

// `StoredRange()` resolves the range of the files stored in state `s`.
func (in *Input) StoredRange(s pubstate.State) (daterange.Range, error) {
	rg, err := in.Resolver.Resolve(
		in.Index.StateFiles(s), in.Dataset.Frequency,
	)
	if err != nil {
		return daterange.Range{}, fmt.Errorf(
			"failed to resolve %s date range: %w", s, err,
		)
	}
	return rg, nil
}

// `CheckFunc` returns `OpUnspecified` if it does not match.
type CheckFunc func(in *Input) (dataset.OpState, error)

type Checker struct {
	Name  string
	Check CheckFunc
}

// `Checkers` is the classification chain in priority order.
var Checkers = []Checker{
	{"datestamp_reuse", checkDatestampReuse},
	{"already_published", checkAlreadyPublished},
	{"multiple_embargoed", checkMultipleEmbargoed},
	{"extending_published", checkExtendingPublished},
	{"extending_embargoed", checkExtendingEmbargoed},
	{"recovery_continuation", checkRecoveryContinuation},
	{"withdrawn", checkWithdrawn},
	{"first_publication", checkFirstPublication},
}

type Result struct {
	State dataset.OpState
	// `Checker` is the name of the matching checker, empty for
	// `OpUnknown`.
	Checker string
	// `Err` explains an `OpUnknown` that was caused by a failing checker.
	Err error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.State, r.Err)
	}
	if r.Checker == "" {
		return r.State.String()
	}
	return fmt.Sprintf("%s (%s)", r.State, r.Checker)
}

func Classify(
	d *dataset.Descriptor, idx *pubstate.Index, resolver *daterange.Resolver,
) Result {
	return ClassifyWith(Checkers, &Input{
		Dataset:  d,
		Index:    idx,
		Resolver: resolver,
	})
}

// `ClassifyWith()` runs an explicit chain.  A checker error stops the chain
// with `OpUnknown`, because later checkers could otherwise accept data that
// an earlier one could not judge.
func ClassifyWith(checkers []Checker, in *Input) Result {
	for _, c := range checkers {
		st, err := c.Check(in)
		if err != nil {
			return Result{
				State: dataset.OpUnknown,
				Err:   fmt.Errorf("checker %s: %w", c.Name, err),
			}
		}
		if st != dataset.OpUnspecified {
			return Result{State: st, Checker: c.Name}
		}
	}
	return Result{State: dataset.OpUnknown}
}

func isAppend(in, stored daterange.Range) bool {
	return in.Start == stored.End && in.End > stored.End
}

func isPrepend(in, stored daterange.Range) bool {
	return in.End == stored.Start && in.Start < stored.Start
}

// The new datestamp must not be a version in any state except embargoed,
// where it is the target of the run.
func checkDatestampReuse(in *Input) (dataset.OpState, error) {
	for _, s := range pubstate.States {
		if s == pubstate.Embargoed {
			continue
		}
		if in.Index.HasVersion(s, in.Dataset.NewDatestamp) {
			return dataset.OpDatestampReuse, nil
		}
	}
	return dataset.OpUnspecified, nil
}

// Available data may only be extended by a contiguous append or prepend.
func checkAlreadyPublished(in *Input) (dataset.OpState, error) {
	if !in.Index.HasFiles(pubstate.Available) {
		return dataset.OpUnspecified, nil
	}
	stored, err := in.StoredRange(pubstate.Available)
	if err != nil {
		return dataset.OpUnspecified, err
	}
	rg := in.Dataset.DateRange
	if isAppend(rg, stored) || isPrepend(rg, stored) {
		return dataset.OpUnspecified, nil
	}
	return dataset.OpAlreadyPublished, nil
}

func checkMultipleEmbargoed(in *Input) (dataset.OpState, error) {
	vs := in.Index.Versions(pubstate.Embargoed)
	switch {
	case len(vs) > 1:
		return dataset.OpMultipleEmbargoed, nil
	case len(vs) == 1 && vs[0] != in.Dataset.NewDatestamp:
		return dataset.OpMultipleEmbargoed, nil
	default:
		return dataset.OpUnspecified, nil
	}
}

func checkExtending(in *Input, s pubstate.State) (dataset.OpState, error) {
	if !in.Index.HasFiles(s) {
		return dataset.OpUnspecified, nil
	}
	stored, err := in.StoredRange(s)
	if err != nil {
		return dataset.OpUnspecified, err
	}
	rg := in.Dataset.DateRange
	switch {
	case isAppend(rg, stored):
		return dataset.OpAppending, nil
	case isPrepend(rg, stored):
		return dataset.OpPrepending, nil
	default:
		return dataset.OpUnspecified, nil
	}
}

func checkExtendingPublished(in *Input) (dataset.OpState, error) {
	return checkExtending(in, pubstate.Available)
}

func checkExtendingEmbargoed(in *Input) (dataset.OpState, error) {
	return checkExtending(in, pubstate.Embargoed)
}

// Embargoed files that the incoming range covers are left over from an
// interrupted run.
func checkRecoveryContinuation(in *Input) (dataset.OpState, error) {
	if !in.Index.HasFiles(pubstate.Embargoed) {
		return dataset.OpUnspecified, nil
	}
	stored, err := in.StoredRange(pubstate.Embargoed)
	if err != nil {
		return dataset.OpUnspecified, err
	}
	if in.Dataset.DateRange.Contains(stored) {
		return dataset.OpProcessingContinuation, nil
	}
	return dataset.OpUnspecified, nil
}

func checkWithdrawn(in *Input) (dataset.OpState, error) {
	if in.Index.HasFiles(pubstate.Withdrawn) {
		return dataset.OpPreviouslyWithdrawn, nil
	}
	return dataset.OpUnspecified, nil
}

func checkFirstPublication(in *Input) (dataset.OpState, error) {
	if in.Index.IsEmpty() || in.Index.NumFiles() == 0 {
		return dataset.OpFirstPublication, nil
	}
	return dataset.OpUnspecified, nil
}
