package chunker_test

import (
	"errors"
	"testing"

	"github.com/cddsproject/cdds/backend/internal/chunker"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) daterange.Date {
	return daterange.NewDate(y, m, d, 0, 0, 0)
}

func TestPPCandidates(t *testing.T) {
	cands, err := chunker.PPCandidates(
		"u-abcde", "apd", date(2000, 1, 1), date(2000, 1, 4), chunker.PPDaily,
	)
	require.NoError(t, err)
	require.Equal(t, []chunker.Candidate{
		{Filename: "abcdea.pd20000101.pp", Timepoint: date(2000, 1, 1)},
		{Filename: "abcdea.pd20000102.pp", Timepoint: date(2000, 1, 2)},
		{Filename: "abcdea.pd20000103.pp", Timepoint: date(2000, 1, 3)},
	}, cands)

	cands, err = chunker.PPCandidates(
		"u-abcde", "apu", date(2000, 1, 1), date(2000, 2, 1), chunker.PP10Day,
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"abcdea.pu20000101.pp", "abcdea.pu20000111.pp", "abcdea.pu20000121.pp",
	}, (&chunker.Chunk{Candidates: cands}).Filenames())

	cands, err = chunker.PPCandidates(
		"u-abcde", "apm", date(2000, 11, 1), date(2001, 2, 1), chunker.PPMonthly,
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"abcdea.pm2000nov.pp", "abcdea.pm2000dec.pp", "abcdea.pm2001jan.pp",
	}, (&chunker.Chunk{Candidates: cands}).Filenames())

	cands, err = chunker.PPCandidates(
		"u-abcde", "aps", date(2000, 9, 1), date(2001, 6, 1), chunker.PPSeason,
	)
	require.NoError(t, err)
	require.Equal(t, []string{
		"abcdea.ps2000son.pp", "abcdea.ps2000djf.pp", "abcdea.ps2001mam.pp",
	}, (&chunker.Chunk{Candidates: cands}).Filenames())

	_, err = chunker.PPCandidates(
		"u-abcde", "aps", date(2000, 1, 1), date(2001, 1, 1), chunker.PPSeason,
	)
	require.Error(t, err)
	_, err = chunker.PPCandidates(
		"u-abcde", "apy", date(2000, 1, 1), date(2001, 1, 1), "yearly",
	)
	require.True(t, errors.Is(err, chunker.ErrUnknownPPFrequency))
	_, err = chunker.PPCandidates(
		"abcde", "apm", date(2000, 1, 1), date(2001, 1, 1), chunker.PPMonthly,
	)
	require.True(t, errors.Is(err, chunker.ErrInvalidSuiteID))
}

func ppString(t *testing.T, stream string, from, to daterange.Date, freq string) string {
	cands, err := chunker.PPCandidates("u-abcde", stream, from, to, freq)
	require.NoError(t, err)
	s, err := chunker.PPFileString(cands, freq)
	require.NoError(t, err)
	return s
}

func TestPPFileString(t *testing.T) {
	require.Equal(t,
		`["abcdea.pd20000101.pp".."abcdea.pd20000103.pp"]`,
		ppString(t, "apd", date(2000, 1, 1), date(2000, 1, 4), chunker.PPDaily),
	)
	require.Equal(t,
		`(["abcdea.pm2001apr.pp".."abcdea.pm2001sep.pp"], `+
			`"abcdea.pm2000nov.pp", "abcdea.pm2000dec.pp", `+
			`"abcdea.pm2002jan.pp", "abcdea.pm2002feb.pp")`,
		ppString(t, "apm", date(2000, 11, 1), date(2002, 3, 1), chunker.PPMonthly),
	)
	require.Equal(t,
		`["abcdea.pm2000apr.pp".."abcdea.pm2001sep.pp"]`,
		ppString(t, "apm", date(2000, 1, 1), date(2002, 1, 1), chunker.PPMonthly),
	)
	require.Equal(t,
		`("abcdea.pm2000jan.pp", "abcdea.pm2000feb.pp", "abcdea.pm2000mar.pp")`,
		ppString(t, "apm", date(2000, 1, 1), date(2000, 4, 1), chunker.PPMonthly),
	)
	require.Equal(t,
		`"abcdea.pm2000may.pp"`,
		ppString(t, "apm", date(2000, 5, 1), date(2000, 6, 1), chunker.PPMonthly),
	)
	require.Equal(t,
		`["abcdea.ps2000djf.pp".."abcdea.ps2001son.pp"]`,
		ppString(t, "aps", date(2000, 3, 1), date(2002, 3, 1), chunker.PPSeason),
	)

	_, err := chunker.PPFileString(nil, chunker.PPDaily)
	require.Equal(t, chunker.ErrEmpty, err)
}

func TestPPFilter(t *testing.T) {
	require.Equal(t,
		"begin_global\npp_file=\"a.pp\"\nend_global\nbegin\n stash=m01s00i024\nend\n",
		chunker.PPFilter(`"a.pp"`, "begin\n stash=m01s00i024\nend\n"),
	)
}
