package mutate_test

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cddsproject/cdds/backend/internal/classify"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/dataset"
	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/massgw/localgw"
	"github.com/cddsproject/cdds/backend/internal/metadata"
	"github.com/cddsproject/cdds/backend/internal/mutate"
	"github.com/cddsproject/cdds/backend/internal/pubstate"
	"github.com/cddsproject/cdds/backend/pkg/mulog"
	"github.com/cddsproject/cdds/backend/pkg/ulid"
	"github.com/cddsproject/cdds/backend/pkg/uuid"
	"github.com/stretchr/testify/require"
)

const archivePath = "moose:/adhoc/CMIP6/CMIP/MOHC/M/e/r1i1p1f2/Amon/tas/gn"

var resolver = daterange.NewResolver(&metadata.Static{})

type fixture struct {
	t     *testing.T
	root  string
	local string
	gw    *localgw.Gateway
}

func newFixture(t *testing.T, simulate bool) *fixture {
	root, err := ioutil.TempDir("", "mutate-archive")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(root) })
	local, err := ioutil.TempDir("", "mutate-local")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(local) })

	gw, err := localgw.New(mulog.Discard{}, localgw.Config{
		Root:     root,
		Simulate: simulate,
	})
	require.NoError(t, err)
	return &fixture{t: t, root: root, local: local, gw: gw}
}

func decadeName(y int) string {
	return fmt.Sprintf("tas_Amon_M_e_r1i1p1f2_gn_%d01-%d12.nc", y, y+9)
}

func (f *fixture) archived(dir string, from, to int) {
	p := filepath.Join(f.root, strings.TrimPrefix(archivePath, "moose:"), dir)
	require.NoError(f.t, os.MkdirAll(p, 0777))
	for y := from; y < to; y += 10 {
		require.NoError(f.t, ioutil.WriteFile(
			filepath.Join(p, decadeName(y)), []byte("old"), 0666,
		))
	}
}

func (f *fixture) incoming(from, to int) []string {
	var fs []string
	for y := from; y < to; y += 10 {
		p := filepath.Join(f.local, decadeName(y))
		require.NoError(f.t, ioutil.WriteFile(p, []byte("new"), 0666))
		fs = append(fs, p)
	}
	return fs
}

// `classified()` prepares a descriptor the way a store run does.
func (f *fixture) classified(from, to int) *dataset.Descriptor {
	ctx := context.Background()
	d, err := dataset.New(
		dataset.Identity{MipTable: "Amon", Variable: "tas", Frequency: "mon"},
		archivePath, "v20210101", f.incoming(from, to), resolver,
	)
	require.NoError(f.t, err)
	rs, err := f.gw.List(ctx, archivePath)
	require.NoError(f.t, err)
	idx := pubstate.BuildIndex(archivePath, rs.Tree())
	require.NoError(f.t, d.SetIndex(idx))
	res := classify.Classify(d, idx, resolver)
	require.NoError(f.t, d.SetOpState(res.State))
	return d
}

func (f *fixture) list(dir string) []string {
	p := filepath.Join(f.root, strings.TrimPrefix(archivePath, "moose:"), dir)
	ents, err := ioutil.ReadDir(p)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(f.t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func newMutator(f *fixture) *mutate.Mutator {
	runID, err := ulid.New()
	require.NoError(f.t, err)
	return mutate.New(mulog.Discard{}, f.gw, mutate.Config{
		TmpDir: f.local,
		RunID:  runID,
	})
}

func TestAppendToAvailable(t *testing.T) {
	f := newFixture(t, false)
	f.archived("available/v20200101", 2000, 2010)
	d := f.classified(2010, 2020)
	require.Equal(t, dataset.OpAppending, d.OpState())

	require.NoError(t, newMutator(f).Apply(context.Background(), d))

	require.Equal(t, []string{decadeName(2000), decadeName(2010)},
		f.list("embargoed/v20210101"))
	require.Nil(t, f.list("available/v20200101"))
	require.Equal(t, []string{"Amon_tas_superseded.log"},
		f.list("superseded/v20200101"))

	manifest, err := ioutil.ReadFile(filepath.Join(
		f.root, strings.TrimPrefix(archivePath, "moose:"),
		"superseded/v20200101/Amon_tas_superseded.log",
	))
	require.NoError(t, err)
	require.Contains(t, string(manifest), "Files moved:\n"+
		archivePath+"/available/v20200101/"+decadeName(2000)+"\n")
	require.Contains(t, string(manifest), "New location:\n"+
		archivePath+"/embargoed/v20210101\n")

	// A later run derives the same dataset id.
	again := f.classified(2010, 2020)
	require.Equal(t, d.ID(), again.ID())
	require.Contains(t, string(manifest), "Dataset: "+again.ID().String()+"\n")
	require.Contains(t, string(manifest), "Run: ")
}

func TestPrependToAvailable(t *testing.T) {
	f := newFixture(t, false)
	f.archived("available/v20200101", 2000, 2020)
	d := f.classified(1980, 2000)
	require.Equal(t, dataset.OpPrepending, d.OpState())

	require.NoError(t, newMutator(f).Apply(context.Background(), d))
	require.Len(t, f.list("embargoed/v20210101"), 4)
	require.Len(t, f.list("superseded/v20200101"), 1)
}

func TestContinuationPutsOnlyMissingFiles(t *testing.T) {
	f := newFixture(t, false)
	f.archived("embargoed/v20210101", 2000, 2010)
	d := f.classified(2000, 2030)
	require.Equal(t, dataset.OpProcessingContinuation, d.OpState())

	require.NoError(t, newMutator(f).Apply(context.Background(), d))
	require.Equal(t, []string{
		decadeName(2000), decadeName(2010), decadeName(2020),
	}, f.list("embargoed/v20210101"))

	old, err := ioutil.ReadFile(filepath.Join(
		f.root, strings.TrimPrefix(archivePath, "moose:"),
		"embargoed/v20210101", decadeName(2000),
	))
	require.NoError(t, err)
	require.Equal(t, "old", string(old))
}

// A run that crashed after moving the available files but before writing
// the manifest leaves the files in the target.  The rerun extends them in
// place.
func TestRerunAfterCrashAfterMove(t *testing.T) {
	f := newFixture(t, false)
	f.archived("embargoed/v20210101", 2000, 2010)
	f.archived("available/v20200101", 0, 0)
	d := f.classified(2010, 2020)
	require.Equal(t, dataset.OpAppending, d.OpState())

	require.NoError(t, newMutator(f).Apply(context.Background(), d))
	require.Equal(t, []string{decadeName(2000), decadeName(2010)},
		f.list("embargoed/v20210101"))
	require.Nil(t, f.list("superseded"))
}

func TestRerunAfterCompleteAppendIsConflict(t *testing.T) {
	f := newFixture(t, false)
	f.archived("available/v20200101", 2000, 2010)
	d := f.classified(2010, 2020)
	require.NoError(t, newMutator(f).Apply(context.Background(), d))

	again := f.classified(2010, 2020)
	require.False(t, again.OpState().Valid())
	require.Len(t, f.list("embargoed/v20210101"), 2)
}

func TestFirstPublication(t *testing.T) {
	f := newFixture(t, false)
	d := f.classified(2000, 2020)
	require.Equal(t, dataset.OpFirstPublication, d.OpState())
	require.NoError(t, newMutator(f).Apply(context.Background(), d))
	require.Len(t, f.list("embargoed/v20210101"), 2)

	// All files present: the rerun is a continuation that puts nothing.
	again := f.classified(2000, 2020)
	require.Equal(t, dataset.OpProcessingContinuation, again.OpState())
	require.NoError(t, newMutator(f).Apply(context.Background(), again))
	require.Len(t, f.list("embargoed/v20210101"), 2)
}

func TestSimulateChangesNothing(t *testing.T) {
	f := newFixture(t, true)
	f.archived("available/v20200101", 2000, 2010)
	d := f.classified(2010, 2020)
	require.Equal(t, dataset.OpAppending, d.OpState())

	require.NoError(t, newMutator(f).Apply(context.Background(), d))
	require.Equal(t, []string{decadeName(2000)}, f.list("available/v20200101"))
	require.Nil(t, f.list("embargoed"))
	require.Nil(t, f.list("superseded"))
}

func TestApplyRejectsInvalidState(t *testing.T) {
	f := newFixture(t, false)
	f.archived("available/v20200101", 2000, 2020)
	d := f.classified(2000, 2020)
	require.Equal(t, dataset.OpAlreadyPublished, d.OpState())

	err := newMutator(f).Apply(context.Background(), d)
	require.True(t, errors.Is(err, mutate.ErrInvalidState))
}

func TestApplyReportsFailedStep(t *testing.T) {
	f := newFixture(t, false)
	d := f.classified(2000, 2010)
	require.NoError(t, os.Remove(d.Files[0]))

	err := newMutator(f).Apply(context.Background(), d)
	var serr *mutate.StepError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, mutate.StepPut, serr.Step)
}

func TestApplyReportsGatewayFailure(t *testing.T) {
	f := newFixture(t, false)
	f.archived("available/v20200101", 2000, 2010)
	d := f.classified(2010, 2020)
	// A file with the name of a moved file already in the target.
	f.archived("embargoed/v20210101", 2000, 2010)

	err := newMutator(f).Apply(context.Background(), d)
	var serr *mutate.StepError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, mutate.StepMove, serr.Step)
	var cerr *massgw.CommandError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, []string{decadeName(2000)}, f.list("available/v20200101"))
}

func TestFilterArchived(t *testing.T) {
	require.Equal(t,
		[]string{"/local/b.nc"},
		mutate.FilterArchived(
			[]string{"/local/a.nc", "/local/b.nc"},
			[]string{"moose:/x/embargoed/v1/a.nc"},
		),
	)
	require.Nil(t, mutate.FilterArchived(nil, []string{"moose:/a.nc"}))
}

func TestManifestWithoutIDs(t *testing.T) {
	require.Equal(t,
		"The following files were moved to a new datestamp when "+
			"further data was appended to this dataset:\n"+
			"Files moved:\n"+
			"moose:/d/available/v1/a.nc\n"+
			"New location:\n"+
			"moose:/d/embargoed/v2\n",
		mutate.Manifest(
			[]string{"moose:/d/available/v1/a.nc"},
			"moose:/d/embargoed/v2",
			uuid.Nil,
			ulid.Nil,
		),
	)
}
