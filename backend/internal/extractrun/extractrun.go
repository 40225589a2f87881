// vim: sw=8

// Package `extractrun` plans and runs the retrieval of model output streams
// from MASS.
//
// A pp stream is retrieved with `moo select` and a filter file that names
// the expected files.  The plan is found by bisecting the expected file list
// with dry runs until every chunk is accepted.  A netCDF stream is retrieved
// with `moo filter`.  Its files are listed together with their tapes and
// grouped deterministically.
//
// Filter files are written below `<procdir>/extract/`.
package extractrun

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/chunker"
	"github.com/cddsproject/cdds/backend/internal/daterange"
	"github.com/cddsproject/cdds/backend/internal/massgw"
)

var ErrMassUnavailable = errors.New("MASS is not available")
var ErrGetDisabled = errors.New("MASS GET commands are disabled")
var ErrUnknownStreamType = errors.New("unknown stream type")

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
}

type StreamType int

const (
	StreamTypeUnspecified StreamType = iota
	StreamPP
	StreamNC
)

func (t StreamType) String() string {
	switch t {
	case StreamPP:
		return "pp"
	case StreamNC:
		return "nc"
	default:
		return "unspecified"
	}
}

func ParseStreamType(s string) (StreamType, error) {
	switch s {
	case "pp":
		return StreamPP, nil
	case "nc":
		return StreamNC, nil
	default:
		return StreamTypeUnspecified, fmt.Errorf(
			"%w `%s`", ErrUnknownStreamType, s,
		)
	}
}

// `Stream` describes what to retrieve from one stream in `[Start, End)`.
type Stream struct {
	Name   string
	Type   StreamType
	Source string
	Start  daterange.Date
	End    daterange.Date

	// `FileFrequency` is the period of pp files, like `monthly`.
	FileFrequency string
	// `StashFilter` holds the `begin ... end` blocks that select pp
	// fields.
	StashFilter string

	// `Substreams` maps netCDF substreams, like `grid-T` or `default`, to
	// their filter file lines, like `-v thetao,so`.
	Substreams map[string][]string
}

type Config struct {
	SuiteID string
	ProcDir string
	// `DataDir` receives the retrieved files, in a subdirectory per
	// stream.
	DataDir  string
	MaxCalls int
	MaxTapes int
	MaxFiles int
}

// `Request` is one planned retrieval command.
type Request struct {
	Stream     string
	FilterFile string
	Args       []string
	First      daterange.Date
	Last       daterange.Date
	NFiles     int
}

func (r *Request) String() string {
	return "moo " + strings.Join(r.Args, " ")
}

type Runner struct {
	lg  Logger
	gw  massgw.Gateway
	cfg Config
}

func New(lg Logger, gw massgw.Gateway, cfg Config) *Runner {
	return &Runner{lg: lg, gw: gw, cfg: cfg}
}

func (r *Runner) extractDir() string {
	return filepath.Join(r.cfg.ProcDir, "extract")
}

func (r *Runner) targetDir(s *Stream) string {
	return filepath.Join(r.cfg.DataDir, s.Name)
}

func (r *Runner) writeFilter(name, content string) (string, error) {
	if err := os.MkdirAll(r.extractDir(), 0777); err != nil {
		return "", err
	}
	p := filepath.Join(r.extractDir(), name)
	if err := ioutil.WriteFile(p, []byte(content), 0666); err != nil {
		return "", err
	}
	return p, nil
}

// `CheckAvailable()` fails unless MASS accepts GET commands.
func (r *Runner) CheckAvailable(ctx context.Context) error {
	info, err := r.gw.Info(ctx)
	if err != nil {
		return err
	}
	if !info.Available {
		return ErrMassUnavailable
	}
	if !info.Enabled("GET") {
		return ErrGetDisabled
	}
	return nil
}

// `Plan()` returns the retrieval commands for a stream.
func (r *Runner) Plan(ctx context.Context, s *Stream) ([]Request, error) {
	switch s.Type {
	case StreamPP:
		return r.planPP(ctx, s)
	case StreamNC:
		return r.planNC(ctx, s)
	default:
		return nil, fmt.Errorf("stream %s: %w", s.Name, ErrUnknownStreamType)
	}
}

// `StreamReport` summarizes the retrieval of a stream.
type StreamReport struct {
	Stream   string
	Requests int
	OK       int
	Skipped  []string
}

// `StopError` reports a retrieval response that aborts the run.
type StopError struct {
	Request string
	Status  chunker.Status
}

func (err *StopError) Error() string {
	return fmt.Sprintf("%s: %s", err.Request, err.Status)
}

// `Execute()` runs planned requests in order.  A request that MASS skips is
// recorded and the run continues.  A request that MASS stops aborts the
// run.
func (r *Runner) Execute(
	ctx context.Context, stream string, reqs []Request,
) (*StreamReport, error) {
	rep := &StreamReport{Stream: stream, Requests: len(reqs)}
	for i := range reqs {
		req := &reqs[i]
		r.lg.Infow(
			"Retrieving.",
			"stream", stream,
			"first", req.First.String(),
			"last", req.Last.String(),
			"command", req.String(),
		)
		resp, err := r.gw.Retrieve(ctx, req.Args)
		if err != nil {
			return rep, err
		}
		st := chunker.ClassifyResponse(resp)
		switch st.Action {
		case chunker.ActionOK:
			rep.OK++
		case chunker.ActionSkip:
			r.lg.Warnw(
				"Skipped retrieval.",
				"stream", stream,
				"code", st.Code,
				"reason", st.Msg,
			)
			rep.Skipped = append(rep.Skipped, req.String())
		default:
			return rep, &StopError{Request: req.String(), Status: st}
		}
	}
	return rep, nil
}
