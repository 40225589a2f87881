package chunker

import (
	"fmt"
	"strings"

	"github.com/cddsproject/cdds/backend/internal/massgw"
)

type Action int

const (
	ActionUnspecified Action = iota
	// `ActionOK` continues with the next request.
	ActionOK
	// `ActionSkip` gives up on the request but continues with others.
	ActionSkip
	// `ActionStop` aborts the retrieval.
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionOK:
		return "ok"
	case ActionSkip:
		return "skip"
	case ActionStop:
		return "stop"
	default:
		return "unspecified"
	}
}

// Status codes.
const (
	CodeRequestOK         = "request_ok"
	CodeAlreadyExists     = "already_exists"
	CodePathNotExist      = "path_not_exist"
	CodeDiskSpace         = "disk_space"
	CodeLimitExceeded     = "limit_exceeded"
	CodeNoMatches         = "no_matches"
	CodeRejected          = "rejected"
	CodeSystemUnavailable = "system_unavailable"
	CodeOtherError        = "other_error"
)

// `Status` is the interpretation of a `moo` response.
type Status struct {
	Action Action
	Code   string
	Msg    string
}

func (s Status) String() string {
	return fmt.Sprintf("%s %s: %s", s.Action, s.Code, s.Msg)
}

// `Verdict()` maps the status of a dry run to a bisection verdict.
func (s Status) Verdict() Verdict {
	switch {
	case s.Action == ActionOK:
		return VerdictOK
	case s.Code == CodeLimitExceeded:
		return VerdictTooLarge
	case s.Code == CodeNoMatches:
		return VerdictNoData
	default:
		return VerdictRejected
	}
}

type outputRule struct {
	marker string
	status Status
}

// Checked in order.  A later match replaces an earlier one, except that a
// task rejection does not replace a more specific error.
var code2Rules = []outputRule{
	{"ERROR_CLIENT_PATH_ALREADY_EXISTS", Status{
		ActionOK, CodeAlreadyExists, "some file(s) already existed",
	}},
	{"ERROR_CLIENT_PATH_DOES_NOT_EXIST", Status{
		ActionStop, CodePathNotExist, "target directory does not exist",
	}},
	{"ERROR_CLIENT_INSUFFICIENT_DISK_SPACE", Status{
		ActionStop, CodeDiskSpace, "insufficient disk space available",
	}},
	{"TSSC_EXCEEDS_DATA_VOLUME_LIMIT", Status{
		ActionSkip, CodeLimitExceeded, "volume too big",
	}},
	{"TSSC_EXCEEDS_FILE_NUMBER_LIMIT", Status{
		ActionSkip, CodeLimitExceeded, "too many files",
	}},
	{"TSSC_SPANS_TOO_MANY_RESOURCES", Status{
		ActionSkip, CodeLimitExceeded, "too many tapes",
	}},
	{"TSSC_QUERY_MATCHES_TOO_MANY_RESULTS", Status{
		ActionSkip, CodeLimitExceeded, "too many results",
	}},
	{"TSSC_QUERY_MATCHES_NO_RESULTS", Status{
		ActionSkip, CodeNoMatches, "no matching files to retrieve",
	}},
	{"SSC_TASK_REJECTION", Status{
		ActionSkip, CodeRejected, "task rejected",
	}},
	{"ERROR_TRANSFER", Status{
		ActionStop, CodeRejected, "data transfer error",
	}},
}

var code3Rules = []outputRule{
	{"SSC_STORAGE_SYSTEM_UNAVAILABLE", Status{
		ActionStop, CodeSystemUnavailable, "storage system not available",
	}},
	{"ncks: ERROR", Status{
		ActionSkip, CodeRejected,
		"error with ncks filtering (possibly requested variable not found)",
	}},
}

const markerNoVariable = " is not in and/or does not match"

// `ClassifyResponse()` interprets the exit code and output of a `moo`
// retrieval or dry run.
func ClassifyResponse(resp *massgw.Response) Status {
	switch resp.Code {
	case 0:
		return Status{Action: ActionOK, Code: CodeRequestOK}
	case 17:
		return Status{
			Action: ActionOK,
			Code:   CodeAlreadyExists,
			Msg:    resp.Output,
		}
	case 2:
		return classifyCode2(resp.Output)
	case 3:
		st := defaultError(resp)
		for _, r := range code3Rules {
			if strings.Contains(resp.Output, r.marker) {
				st = r.status
			}
		}
		return st
	default:
		return Status{
			Action: ActionStop,
			Code:   CodeOtherError,
			Msg:    "unknown system error",
		}
	}
}

func defaultError(resp *massgw.Response) Status {
	return Status{
		Action: ActionStop,
		Code:   CodeRejected,
		Msg: fmt.Sprintf(
			"moo command error (code: %d)\noutput: %s",
			resp.Code, resp.Output,
		),
	}
}

func classifyCode2(out string) Status {
	st := defaultError(&massgw.Response{Code: 2, Output: out})
	matched := 0
	for _, r := range code2Rules {
		if !strings.Contains(out, r.marker) {
			continue
		}
		if r.marker == "SSC_TASK_REJECTION" && matched > 0 {
			continue
		}
		st = r.status
		if r.marker == "SSC_TASK_REJECTION" {
			st.Msg = "task rejected:\n" + out
		}
		if strings.Contains(out, "does not match") {
			st.Action = ActionSkip
			st.Msg = fmt.Sprintf(
				"requested variable not found [%s and maybe others]",
				missingVariable(out),
			)
		}
		matched++
	}
	return st
}

// `missingVariable()` returns the word before the last
// `is not in and/or does not match`.
func missingVariable(out string) string {
	i := strings.LastIndex(out, markerNoVariable)
	if i < 0 {
		return "unknown"
	}
	fields := strings.Fields(out[:i])
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[len(fields)-1]
}
