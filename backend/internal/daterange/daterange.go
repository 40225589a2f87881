// vim: sw=8

// Package `daterange` derives the time range that a set of climate output
// files covers, from the `_<start>-<end>[-clim].nc` facet of their names.
//
// Dates use the 360-day model calendar: 12 months of 30 days.  A range is
// half-open `[Start, End)`.  `End` is the end of the last file plus one
// output period, so that the range of a dataset that continues another one
// starts exactly at the other's end.
package daterange

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"

	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/pkg/regexpx"
)

var ErrNoFiles = errors.New("no files with a date range")

const (
	secsPerMinute = 60
	secsPerHour   = 60 * secsPerMinute
	secsPerDay    = 24 * secsPerHour
	daysPerMonth  = 30
	monthsPerYear = 12
	secsPerMonth  = daysPerMonth * secsPerDay
	secsPerYear   = monthsPerYear * secsPerMonth
)

// `Date` is a point in the 360-day calendar, counted in seconds since
// `0000-01-01 00:00:00`.
type Date int64

func NewDate(year, month, day, hour, minute, second int) Date {
	return Date(int64(year)*secsPerYear +
		int64(month-1)*secsPerMonth +
		int64(day-1)*secsPerDay +
		int64(hour)*secsPerHour +
		int64(minute)*secsPerMinute +
		int64(second))
}

func (d Date) Year() int   { return int(int64(d) / secsPerYear) }
func (d Date) Month() int  { return int(int64(d)%secsPerYear/secsPerMonth) + 1 }
func (d Date) Day() int    { return int(int64(d)%secsPerMonth/secsPerDay) + 1 }
func (d Date) Hour() int   { return int(int64(d) % secsPerDay / secsPerHour) }
func (d Date) Minute() int { return int(int64(d) % secsPerHour / secsPerMinute) }
func (d Date) Second() int { return int(int64(d) % secsPerMinute) }

func (d Date) Add(days, seconds int) Date {
	return d + Date(int64(days)*secsPerDay+int64(seconds))
}

func (d Date) String() string {
	return fmt.Sprintf(
		"%04d-%02d-%02d %02d:%02d:%02d",
		d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(),
	)
}

// `ParseStamp()` parses a filename date facet of `width` digits.
func ParseStamp(s string, width int) (Date, error) {
	if len(s) != width {
		return 0, fmt.Errorf(
			"date `%s` does not have %d digits", s, width,
		)
	}
	digits := func(from, to int) int {
		if len(s) < to {
			return -1
		}
		v, err := strconv.Atoi(s[from:to])
		if err != nil {
			return -1
		}
		return v
	}

	year := digits(0, 4)
	month, day, hour, minute, second := 1, 1, 0, 0, 0
	switch width {
	case 4:
	case 6:
		month = digits(4, 6)
	case 8:
		month, day = digits(4, 6), digits(6, 8)
	case 12:
		month, day = digits(4, 6), digits(6, 8)
		hour, minute = digits(8, 10), digits(10, 12)
	case 14:
		month, day = digits(4, 6), digits(6, 8)
		hour, minute = digits(8, 10), digits(10, 12)
		second = digits(12, 14)
	default:
		return 0, fmt.Errorf("unsupported date width %d", width)
	}

	if year < 0 ||
		month < 1 || month > monthsPerYear ||
		day < 1 || day > daysPerMonth ||
		hour < 0 || hour > 23 ||
		minute < 0 || minute > 59 ||
		second < 0 || second > 59 {
		return 0, fmt.Errorf("invalid 360-day calendar date `%s`", s)
	}
	return NewDate(year, month, day, hour, minute, second), nil
}

type Range struct {
	Start Date
	End   Date
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// `Contains()` reports whether `o` lies within `r`.
func (r Range) Contains(o Range) bool {
	return r.Start <= o.Start && r.End >= o.End
}

var rgxDateFacet = regexp.MustCompile(regexpx.Verbose(`
	_
	( ?P<start> [0-9]+ )
	-
	( ?P<end> [0-9]+ )
	( ?P<clim> -clim )?
	\.nc
	$
`))

type Resolver struct {
	md metadata.Provider
}

func NewResolver(md metadata.Provider) *Resolver {
	return &Resolver{md: md}
}

// `Resolve()` returns the range covered by `files`, which may be paths.
// Files whose names carry no date facet are ignored.  The files are assumed
// to be contiguous, which quality control has checked before.
func (r *Resolver) Resolve(files []string, frequency string) (Range, error) {
	freq, err := r.md.Frequency(frequency)
	if err != nil {
		return Range{}, err
	}

	var rg Range
	var lastEnd string
	found := false
	for _, f := range files {
		g := regexpx.NamedGroups(rgxDateFacet, path.Base(f))
		if g == nil {
			continue
		}
		start, err := ParseStamp(g["start"], freq.Width)
		if err != nil {
			return Range{}, fmt.Errorf("file `%s`: %v", f, err)
		}
		end, err := ParseStamp(g["end"], freq.Width)
		if err != nil {
			return Range{}, fmt.Errorf("file `%s`: %v", f, err)
		}
		if !found || start < rg.Start {
			rg.Start = start
		}
		if !found || end > rg.End {
			rg.End = end
			lastEnd = g["end"]
		}
		found = true
	}
	if !found {
		return Range{}, ErrNoFiles
	}

	secs := freq.Seconds
	if freq.SecondsFromEnd {
		minute, _ := strconv.Atoi(lastEnd[10:12])
		secs = 60 * (60 - minute)
	}
	rg.End = rg.End.Add(freq.Days, secs)
	return rg, nil
}
