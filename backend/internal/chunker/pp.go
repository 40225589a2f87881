package chunker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/daterange"
)

// File frequencies of pp streams.
const (
	PPDaily   = "daily"
	PP10Day   = "10 day"
	PPMonthly = "monthly"
	PPSeason  = "season"
)

var ErrUnknownPPFrequency = errors.New("unknown pp file frequency")
var ErrInvalidSuiteID = errors.New("invalid suite id")

var monthAbbrevs = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

var seasonNames = map[int]string{3: "mam", 6: "jja", 9: "son", 12: "djf"}

type ppStep struct {
	days   int
	months int
}

var ppSteps = map[string]ppStep{
	PPDaily:   {days: 1},
	PP10Day:   {days: 10},
	PPMonthly: {months: 1},
	PPSeason:  {months: 3},
}

func ppDatestamp(t daterange.Date, freq string) string {
	switch freq {
	case PPMonthly:
		return fmt.Sprintf("%04d%s", t.Year(), monthAbbrevs[t.Month()-1])
	case PPSeason:
		return fmt.Sprintf("%04d%s", t.Year(), seasonNames[t.Month()])
	default:
		return fmt.Sprintf("%04d%02d%02d", t.Year(), t.Month(), t.Day())
	}
}

// `PPCandidates()` returns the pp files that a stream is expected to hold
// for `[start, end)`, like `abcdea.py2000jan.pp` for suite `u-abcde`,
// stream `apy`.
func PPCandidates(
	suiteID, stream string, start, end daterange.Date, freq string,
) ([]Candidate, error) {
	step, ok := ppSteps[freq]
	if !ok {
		return nil, fmt.Errorf("%w `%s`", ErrUnknownPPFrequency, freq)
	}
	parts := strings.SplitN(suiteID, "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("%w `%s`", ErrInvalidSuiteID, suiteID)
	}
	if stream == "" {
		return nil, errors.New("empty stream")
	}
	suite := parts[1]
	streamChar := stream[len(stream)-1:]

	var cands []Candidate
	for t := start; t < end; t = t.Add(step.days+30*step.months, 0) {
		if freq == PPSeason && seasonNames[t.Month()] == "" {
			return nil, fmt.Errorf(
				"season files must start in Mar, Jun, Sep, or Dec, "+
					"got %s", t,
			)
		}
		cands = append(cands, Candidate{
			Filename: fmt.Sprintf(
				"%sa.p%s%s.pp", suite, streamChar, ppDatestamp(t, freq),
			),
			Timepoint: t,
		})
	}
	return cands, nil
}

func ppRange(cands []Candidate) string {
	return fmt.Sprintf(
		`["%s".."%s"]`, cands[0].Filename, cands[len(cands)-1].Filename,
	)
}

// `PPFileString()` returns the `pp_file` value of a select filter for the
// candidates.  Daily and 10-day file names sort by time, so a name range
// selects them.  Monthly and seasonal names sort alphabetically within a
// year, so only complete years are selected by range, and files of partial
// leading or trailing years are listed individually.
func PPFileString(cands []Candidate, freq string) (string, error) {
	if len(cands) == 0 {
		return "", ErrEmpty
	}
	cands = append([]Candidate(nil), cands...)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Timepoint < cands[j].Timepoint
	})

	var firstMonth, lastMonth int
	switch freq {
	case PPDaily, PP10Day:
		return ppRange(cands), nil
	case PPMonthly:
		firstMonth, lastMonth = 1, 12
	case PPSeason:
		firstMonth, lastMonth = 3, 12
	default:
		return "", fmt.Errorf("%w `%s`", ErrUnknownPPFrequency, freq)
	}

	start, end := cands[0].Timepoint, cands[len(cands)-1].Timepoint
	var singles []string
	without := func(year int) []Candidate {
		var rest []Candidate
		for _, c := range cands {
			if c.Timepoint.Year() == year {
				singles = append(singles, fmt.Sprintf(`"%s"`, c.Filename))
			} else {
				rest = append(rest, c)
			}
		}
		return rest
	}
	if start.Month() != firstMonth {
		cands = without(start.Year())
	}
	if end.Month() != lastMonth {
		cands = without(end.Year())
	}

	rng := ""
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].Filename < cands[j].Filename
		})
		rng = ppRange(cands)
	}
	ind := strings.Join(singles, ", ")

	switch {
	case rng != "" && ind != "":
		return fmt.Sprintf("(%s, %s)", rng, ind), nil
	case rng != "":
		return rng, nil
	case len(singles) > 1:
		return fmt.Sprintf("(%s)", ind), nil
	default:
		return ind, nil
	}
}

// `PPFilter()` returns the content of a select filter file.
func PPFilter(ppFile, stashFilter string) string {
	return "begin_global\n" +
		"pp_file=" + ppFile + "\n" +
		"end_global\n" +
		stashFilter
}
