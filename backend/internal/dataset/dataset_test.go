package dataset_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/cddsproject/cdds/backend/pkg/uuid"
	"github.com/stretchr/testify/require"
)

var req = &dataset.Request{
	MipEra:      "CMIP6",
	Mip:         "CMIP",
	Institution: "MOHC",
	Model:       "UKESM1-0-LL",
	Experiment:  "historical",
	Variant:     "r1i1p1f2",
}

var tas = dataset.Identity{
	MipTable:  "Amon",
	Variable:  "tas",
	Frequency: "mon",
	Stream:    "ap5",
}

func TestArchivePath(t *testing.T) {
	md := &metadata.Static{DefaultGrid: "gn"}
	p, err := dataset.ArchivePath("moose:/adhoc/projects/cdds/production", req, md, tas)
	require.NoError(t, err)
	require.Equal(t,
		"moose:/adhoc/projects/cdds/production/CMIP6/CMIP/MOHC/UKESM1-0-LL/historical/r1i1p1f2/Amon/tas/gn",
		p,
	)
	require.Equal(t,
		"moose:/adhoc/projects/cdds/production/CMIP6/CMIP/MOHC/UKESM1-0-LL/historical/r1i1p1f2",
		req.SimulationPath("moose:/adhoc/projects/cdds/production"),
	)
}

func TestDescriptor(t *testing.T) {
	resolver := daterange.NewResolver(&metadata.Static{})
	d, err := dataset.New(tas, "/a/Amon/tas/gn", "v20210101", []string{
		"/in/tas_Amon_UKESM1-0-LL_historical_r1i1p1f2_gn_201001-201912.nc",
	}, resolver)
	require.NoError(t, err)
	require.Equal(t, daterange.NewDate(2010, 1, 1, 0, 0, 0), d.DateRange.Start)
	require.Equal(t, daterange.NewDate(2020, 1, 1, 0, 0, 0), d.DateRange.End)
	require.Equal(t, "/a/Amon/tas/gn/embargoed/v20210101", d.TargetPath())
	require.Equal(t, "/a/Amon/tas/gn/superseded/v20200101",
		d.VersionPath(pubstate.Superseded, "v20200101"))
	require.Equal(t, "Amon_tas_superseded.log", d.ManifestName())

	require.Nil(t, d.Index())
	require.NoError(t, d.SetIndex(pubstate.NewIndex()))
	require.Equal(t, dataset.ErrIndexAlreadySet, d.SetIndex(pubstate.NewIndex()))

	require.Equal(t, dataset.OpUnspecified, d.OpState())
	require.NoError(t, d.SetOpState(dataset.OpAppending))
	require.Equal(t, dataset.ErrOpStateAlreadySet, d.SetOpState(dataset.OpUnknown))
	require.Equal(t, dataset.OpAppending, d.OpState())

	_, err = dataset.New(tas, "/a", "v20210101", nil, resolver)
	require.True(t, errors.Is(err, dataset.ErrNoFiles))
}

func TestDatasetIDIsStableAcrossRuns(t *testing.T) {
	resolver := daterange.NewResolver(&metadata.Static{})
	first, err := dataset.New(tas, "/a/Amon/tas/gn", "v20210101", []string{
		"/in/tas_Amon_UKESM1-0-LL_historical_r1i1p1f2_gn_201001-201912.nc",
	}, resolver)
	require.NoError(t, err)
	// A later run with a new datestamp and appended files.
	later, err := dataset.New(tas, "/a/Amon/tas/gn", "v20220101", []string{
		"/in/tas_Amon_UKESM1-0-LL_historical_r1i1p1f2_gn_202001-202912.nc",
	}, resolver)
	require.NoError(t, err)
	other, err := dataset.New(tas, "/a/Amon/tas/gr", "v20210101", []string{
		"/in/tas_Amon_UKESM1-0-LL_historical_r1i1p1f2_gr_201001-201912.nc",
	}, resolver)
	require.NoError(t, err)

	require.Equal(t, first.ID(), later.ID())
	require.NotEqual(t, first.ID(), other.ID())
	require.Equal(t, uuid.DatasetID("/a/Amon/tas/gn"), first.ID())
	require.Equal(t, 5, int(first.ID().Version()))
}

func TestOpStateValidity(t *testing.T) {
	valid := map[dataset.OpState]bool{
		dataset.OpFirstPublication:       true,
		dataset.OpAppending:              true,
		dataset.OpPrepending:             true,
		dataset.OpProcessingContinuation: true,
		dataset.OpPreviouslyWithdrawn:    true,
		dataset.OpAlreadyPublished:       false,
		dataset.OpMultipleEmbargoed:      false,
		dataset.OpDatestampReuse:         false,
		dataset.OpUnknown:                false,
		dataset.OpUnspecified:            false,
	}
	for s, v := range valid {
		require.Equal(t, v, s.Valid(), s.String())
		require.NotEmpty(t, s.Description())
	}
}

func TestCollectFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "dataset-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, n := range []string{"b_2010-2019.nc", "a_2000-2009.nc", "notes.txt"} {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, n), nil, 0666))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.nc"), 0777))

	files, err := dataset.CollectFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a_2000-2009.nc"),
		filepath.Join(dir, "b_2010-2019.nc"),
	}, files)
}
