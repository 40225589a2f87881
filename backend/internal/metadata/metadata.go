// vim: sw=8

// Package `metadata` provides the model and grid knowledge that the archive
// path builder and the date range resolver need.  A `Provider` is resolved
// once at startup and passed to its consumers.
package metadata

import (
	"errors"
	"fmt"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

// `Frequency` describes how a frequency encodes dates in filenames.
type Frequency struct {
	Name string
	// `Width` is the number of digits of the filename date facets: 4
	// `YYYY`, 6 `YYYYMM`, 8 `YYYYMMDD`, 12 `YYYYMMDDhhmm`, or 14
	// `YYYYMMDDhhmmss`.
	Width int
	// The end of a range is the last file end plus `Days` and `Seconds`.
	Days    int
	Seconds int
	// `SecondsFromEnd` derives `Seconds` from the minute of the last file
	// end: `60 * (60 - minute)`.  Sub-hourly files end one time step
	// before the full hour.
	SecondsFromEnd bool
}

type Provider interface {
	// `GridLabel()` returns the grid label, like `gn`, of a variable.
	GridLabel(model, mipTable, variable string) (string, error)
	Frequency(name string) (*Frequency, error)
}

var frequencies = map[string]Frequency{
	"yr":      {Width: 4, Days: 360},
	"yrPt":    {Width: 4, Days: 360},
	"dec":     {Width: 4, Days: 360},
	"mon":     {Width: 6, Days: 30},
	"monC":    {Width: 6, Days: 30},
	"day":     {Width: 8, Days: 1},
	"6hr":     {Width: 12, Seconds: 6 * 3600},
	"3hr":     {Width: 12, Seconds: 3 * 3600},
	"1hr":     {Width: 12, Seconds: 1 * 3600},
	"1hrCM":   {Width: 12, Seconds: 1 * 3600},
	"6hrPt":   {Width: 12, Seconds: 6 * 3600},
	"3hrPt":   {Width: 12, Seconds: 3 * 3600},
	"1hrPt":   {Width: 12, Seconds: 1 * 3600},
	"subhrPt": {Width: 14, SecondsFromEnd: true},
}

// `LookupFrequency()` returns the built-in description of a frequency.
func LookupFrequency(name string) (*Frequency, error) {
	f, ok := frequencies[name]
	if !ok {
		return nil, fmt.Errorf("%w `%s`", ErrUnknownFrequency, name)
	}
	f.Name = name
	return &f, nil
}

// `Static` is a `Provider` with a default grid label and per variable
// overrides, keyed `<mipTable>/<variable>`.  It uses the built-in frequency
// table.
type Static struct {
	Model         string
	DefaultGrid   string
	GridOverrides map[string]string
}

var _ Provider = (*Static)(nil)

func (s *Static) GridLabel(model, mipTable, variable string) (string, error) {
	if s.Model != "" && model != s.Model {
		return "", fmt.Errorf(
			"no grid information for model `%s`", model,
		)
	}
	if g, ok := s.GridOverrides[mipTable+"/"+variable]; ok {
		return g, nil
	}
	if s.DefaultGrid == "" {
		return "", fmt.Errorf(
			"no grid label for `%s/%s`", mipTable, variable,
		)
	}
	return s.DefaultGrid, nil
}

func (s *Static) Frequency(name string) (*Frequency, error) {
	return LookupFrequency(name)
}
