package pubstate_test

import (
	"testing"
	"time"

	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/stretchr/testify/require"
)

func TestStateDirs(t *testing.T) {
	for _, s := range pubstate.States {
		got, ok := pubstate.ParseDir(s.Dir())
		require.True(t, ok)
		require.Equal(t, s, got)
	}
	_, ok := pubstate.ParseDir("published")
	require.False(t, ok)
	require.Equal(t, "EMBARGOED", pubstate.Embargoed.String())
}

func TestParseDatestamp(t *testing.T) {
	ds, err := pubstate.ParseDatestamp("v20200101")
	require.NoError(t, err)
	require.Equal(t, pubstate.Datestamp("v20200101"), ds)

	for _, s := range []string{"20200101", "v2020011", "v20201301", "latest"} {
		_, err := pubstate.ParseDatestamp(s)
		require.Error(t, err, s)
	}

	require.Equal(
		t, pubstate.Datestamp("v20210315"),
		pubstate.DatestampFromTime(time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)),
	)
}

func TestBuildIndex(t *testing.T) {
	ds := "moose:/ds/tas/gn"
	rs := massgw.ParseListing(`
D a moose:/ds/tas/gn
D a moose:/ds/tas/gn/available
D a moose:/ds/tas/gn/available/v20200101
F a moose:/ds/tas/gn/available/v20200101/tas_2000-2009.nc
F a moose:/ds/tas/gn/available/v20200101/tas_2010-2019.nc
D a moose:/ds/tas/gn/available/latest
D a moose:/ds/tas/gn/embargoed
D a moose:/ds/tas/gn/embargoed/v20210101
D a moose:/ds/pr/gn/available/v20200101
F a moose:/ds/pr/gn/available/v20200101/pr_2000-2009.nc
`)

	tree := rs.Tree()
	idx := pubstate.BuildIndex(ds, tree)
	require.False(t, idx.IsEmpty())
	require.True(t, idx.HasState(pubstate.Available))
	require.True(t, idx.HasState(pubstate.Embargoed))
	require.False(t, idx.HasState(pubstate.Withdrawn))

	require.Equal(t, []pubstate.Datestamp{"v20200101"}, idx.Versions(pubstate.Available))
	require.Equal(t, []string{
		"moose:/ds/tas/gn/available/v20200101/tas_2000-2009.nc",
		"moose:/ds/tas/gn/available/v20200101/tas_2010-2019.nc",
	}, idx.Files(pubstate.Available, "v20200101"))

	require.True(t, idx.HasVersion(pubstate.Embargoed, "v20210101"))
	require.False(t, idx.HasFiles(pubstate.Embargoed))
	require.True(t, idx.HasFiles(pubstate.Available))
	require.Equal(t, 2, idx.NumFiles())

	empty := pubstate.BuildIndex("moose:/ds/ua/gn", tree)
	require.True(t, empty.IsEmpty())
	require.Equal(t, 0, empty.NumFiles())
}
