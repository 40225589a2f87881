package daterange_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/stretchr/testify/require"
)

func files(pairs ...string) []string {
	var fs []string
	for i := 0; i < len(pairs); i += 2 {
		fs = append(fs, fmt.Sprintf(
			"/path/to/output/ap6/ua/ua_day_model_exp_r1i1p1f1_gn_%s-%s.nc",
			pairs[i], pairs[i+1],
		))
	}
	return fs
}

func TestResolve(t *testing.T) {
	r := daterange.NewResolver(&metadata.Static{})
	y2000 := daterange.NewDate(2000, 1, 1, 0, 0, 0)
	y2030 := daterange.NewDate(2030, 1, 1, 0, 0, 0)

	for _, c := range []struct {
		name  string
		freq  string
		files []string
		want  daterange.Range
	}{
		{
			name: "daily",
			freq: "day",
			files: files(
				"20000101", "20091230",
				"20100101", "20191230",
				"20200101", "20291230",
			),
			want: daterange.Range{Start: y2000, End: y2030},
		},
		{
			name:  "single file",
			freq:  "day",
			files: files("20000101", "20251230"),
			want: daterange.Range{
				Start: y2000,
				End:   daterange.NewDate(2026, 1, 1, 0, 0, 0),
			},
		},
		{
			name:  "yearly",
			freq:  "yr",
			files: files("2000", "2009", "2010", "2019", "2020", "2029"),
			want:  daterange.Range{Start: y2000, End: y2030},
		},
		{
			name: "monthly unsorted",
			freq: "mon",
			files: files(
				"202001", "202912",
				"200001", "200912",
				"201001", "201912",
			),
			want: daterange.Range{Start: y2000, End: y2030},
		},
		{
			name: "6 hourly",
			freq: "6hr",
			files: files(
				"200001010000", "200912301800",
				"201001010000", "201912301800",
				"202001010000", "202912301800",
			),
			want: daterange.Range{Start: y2000, End: y2030},
		},
		{
			name: "sub-hourly 20 minutes",
			freq: "subhrPt",
			files: files(
				"20000101000000", "20091230234000",
				"20100101000000", "20191230234000",
				"20200101000000", "20291230234000",
			),
			want: daterange.Range{Start: y2000, End: y2030},
		},
		{
			name: "sub-hourly 60 minutes",
			freq: "subhrPt",
			files: files(
				"20000101000000", "20091230230000",
				"20200101000000", "20291230230000",
			),
			want: daterange.Range{Start: y2000, End: y2030},
		},
	} {
		got, err := r.Resolve(c.files, c.freq)
		require.NoError(t, err, c.name)
		require.Equal(t, c.want, got, c.name)
	}
}

func TestResolveClimatologyAndNoise(t *testing.T) {
	r := daterange.NewResolver(&metadata.Static{})
	got, err := r.Resolve([]string{
		"tas_Amon_m_e_r1i1p1f1_gn_185001-194912-clim.nc",
		"README",
	}, "monC")
	require.NoError(t, err)
	require.Equal(t, daterange.NewDate(1850, 1, 1, 0, 0, 0), got.Start)
	require.Equal(t, daterange.NewDate(1950, 1, 1, 0, 0, 0), got.End)
}

func TestResolveErrors(t *testing.T) {
	r := daterange.NewResolver(&metadata.Static{})

	_, err := r.Resolve(nil, "day")
	require.Equal(t, daterange.ErrNoFiles, err)

	_, err = r.Resolve(files("2000", "2009"), "day")
	require.Error(t, err)

	_, err = r.Resolve(files("20000131", "20001230"), "day")
	require.Error(t, err)

	_, err = r.Resolve(files("20000101", "20001230"), "fx")
	require.True(t, errors.Is(err, metadata.ErrUnknownFrequency))
}

func TestDate(t *testing.T) {
	d := daterange.NewDate(2009, 12, 30, 18, 0, 0)
	require.Equal(t, 2009, d.Year())
	require.Equal(t, 12, d.Month())
	require.Equal(t, 30, d.Day())
	require.Equal(t, 18, d.Hour())
	require.Equal(t, "2010-01-01 00:00:00", d.Add(0, 6*3600).String())
	require.Equal(t, "2010-01-30 18:00:00", d.Add(30, 0).String())

	a := daterange.Range{
		Start: daterange.NewDate(2000, 1, 1, 0, 0, 0),
		End:   daterange.NewDate(2030, 1, 1, 0, 0, 0),
	}
	b := daterange.Range{
		Start: daterange.NewDate(2010, 1, 1, 0, 0, 0),
		End:   daterange.NewDate(2020, 1, 1, 0, 0, 0),
	}
	require.True(t, a.Contains(b))
	require.False(t, b.Contains(a))
}
