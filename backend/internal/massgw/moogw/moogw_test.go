package moogw_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cddsproject/cdds/backend/internal/massgw"
	"github.com/cddsproject/cdds/backend/internal/massgw/moogw"
	"github.com/cddsproject/cdds/backend/pkg/mulog"
	"github.com/stretchr/testify/require"
)

// `fakeRunner` records commands and answers them from a table keyed by the
// moo sub-command.
type fakeRunner struct {
	calls     []string
	responses map[string]*massgw.Response
}

func (r *fakeRunner) Run(
	ctx context.Context, args []string,
) (*massgw.Response, error) {
	r.calls = append(r.calls, strings.Join(args, " "))
	if resp, ok := r.responses[args[0]]; ok {
		return resp, nil
	}
	return &massgw.Response{}, nil
}

func TestListMissingPathIsEmpty(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"ls": {Code: 2, Output: "ERROR: TSSC_FILE_DOES_NOT_EXIST"},
	}}
	gw := moogw.New(mulog.Discard{}, r, false)

	rs, err := gw.List(context.Background(), "moose:/adhoc/x")
	require.NoError(t, err)
	require.Empty(t, rs)
	require.Equal(t, []string{"ls -Rl moose:/adhoc/x"}, r.calls)
}

func TestListSystemErrorPropagates(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"ls": {Code: 3, Output: "SSC_STORAGE_SYSTEM_UNAVAILABLE"},
	}}
	gw := moogw.New(mulog.Discard{}, r, false)

	_, err := gw.List(context.Background(), "moose:/adhoc/x")
	require.True(t, massgw.IsSystemError(err))
}

func TestMkdirExistOK(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"mkdir": {Code: 10},
	}}
	gw := moogw.New(mulog.Discard{}, r, false)
	ctx := context.Background()

	require.NoError(t, gw.Mkdir(ctx, "/d", massgw.MkdirOptions{
		Parents: true, ExistOK: true,
	}))
	err := gw.Mkdir(ctx, "/d", massgw.MkdirOptions{})
	require.True(t, errors.Is(err, massgw.ErrDirExists))
	require.Equal(t, []string{"mkdir -p /d", "mkdir /d"}, r.calls)
}

func TestPutAndMoveCheckLocation(t *testing.T) {
	r := &fakeRunner{}
	gw := moogw.New(mulog.Discard{}, r, false)
	ctx := context.Background()

	require.NoError(t, gw.Move(
		ctx, []string{"/a/f1.nc", "/a/f2.nc"}, "/b",
		massgw.MoveOptions{CheckLocation: true},
	))
	require.NoError(t, gw.Put(
		ctx, []string{"f3.nc"}, "/b", massgw.PutOptions{},
	))
	require.Equal(t, []string{
		"mkdir -p /b",
		"mv /a/f1.nc /a/f2.nc /b",
		"put f3.nc /b",
	}, r.calls)
}

func TestSimulateSkipsMutations(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"ls":     {Output: "D a /r\nD a /r/empty\n"},
		"select": {Code: 2, Output: "TSSC_EXCEEDS_FILE_NUMBER_LIMIT"},
	}}
	gw := moogw.New(mulog.Discard{}, r, true)
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, []string{"f.nc"}, "/b", massgw.PutOptions{
		CheckLocation: true,
	}))
	require.NoError(t, gw.Move(ctx, []string{"/a/f"}, "/b", massgw.MoveOptions{}))
	require.NoError(t, gw.Rmdir(ctx, "/a"))

	dirs, err := gw.RmEmptyDirs(ctx, "/r", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"/r/empty", "/r"}, dirs)

	resp, err := gw.Test(ctx, []string{"select", "-n", "ff", "src", "dst"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Code)

	resp, err = gw.Retrieve(ctx, []string{"select", "-i", "-d", "ff", "src", "dst"})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Code)
	require.Equal(t, moogw.SimOutput, resp.Output)

	info, err := gw.Info(ctx)
	require.NoError(t, err)
	require.True(t, info.Available)

	// Only the listing and the dry run reach the real runner.
	require.Equal(t, []string{
		"ls -Rl /r",
		"select -n ff src dst",
	}, r.calls)
}

func TestInfo(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"si": {Output: strings.Join([]string{
			"Storage system: available",
			"GET commands enabled: true",
			"PUT commands enabled: False",
		}, "\n")},
	}}
	gw := moogw.New(mulog.Discard{}, r, false)

	info, err := gw.Info(context.Background())
	require.NoError(t, err)
	require.True(t, info.Available)
	require.Equal(t, map[string]bool{"GET": true, "PUT": false}, info.Commands)

	r.responses["si"] = &massgw.Response{Code: 3}
	info, err = gw.Info(context.Background())
	require.NoError(t, err)
	require.False(t, info.Available)
}

func TestListTapes(t *testing.T) {
	r := &fakeRunner{responses: map[string]*massgw.Response{
		"ls": {Output: "T001 moose:/crum/s/ond.nc.file/a.nc\n" +
			"T002 moose:/crum/s/ond.nc.file/b.nc\n"},
	}}
	gw := moogw.New(mulog.Discard{}, r, false)

	files, err := gw.ListTapes(context.Background(), "moose:/crum/s/ond.nc.file")
	require.NoError(t, err)
	require.Equal(t, []massgw.TapeFile{
		{Tape: "T001", Path: "moose:/crum/s/ond.nc.file/a.nc"},
		{Tape: "T002", Path: "moose:/crum/s/ond.nc.file/b.nc"},
	}, files)
	require.Equal(t, []string{"ls -m moose:/crum/s/ond.nc.file"}, r.calls)
}
