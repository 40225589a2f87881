package massgw

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotExist = errors.New("path does not exist in MASS")
var ErrDirExists = errors.New("directory already exists in MASS")

type FailureClass int

const (
	FailureUnspecified FailureClass = iota
	FailureNotExist
	FailureUser
	FailureSystem
	FailureClient
	FailureAccess
	FailureDirExists
	FailureOther
)

func (c FailureClass) String() string {
	switch c {
	case FailureNotExist:
		return "not exist error"
	case FailureUser:
		return "user error"
	case FailureSystem:
		return "system error"
	case FailureClient:
		return "client error"
	case FailureAccess:
		return "access error"
	case FailureDirExists:
		return "directory already exists error"
	case FailureOther:
		return "other error"
	default:
		return "unspecified error"
	}
}

// `CommandError` reports a `moo` command that exited with a non-zero code.
// It unwraps to `ErrNotExist` or `ErrDirExists` where applicable.
type CommandError struct {
	Class  FailureClass
	Args   []string
	Code   int
	Output string
}

func (err *CommandError) Error() string {
	return fmt.Sprintf(
		"moo %s: %s (return code %d): %s",
		strings.Join(err.Args, " "), err.Class, err.Code,
		strings.TrimSpace(err.Output),
	)
}

func (err *CommandError) Unwrap() error {
	switch err.Class {
	case FailureNotExist:
		return ErrNotExist
	case FailureDirExists:
		return ErrDirExists
	default:
		return nil
	}
}

// `Classify()` maps the exit code and output of `moo args...` to an error.
// It returns nil for code 0.
func Classify(args []string, resp *Response) error {
	class := FailureUnspecified
	switch {
	case resp.Code == 0:
		return nil
	case resp.Code == 2 && strings.Contains(resp.Output, "TSSC_FILE_DOES_NOT_EXIST"):
		class = FailureNotExist
	case resp.Code == 2:
		class = FailureUser
	case resp.Code == 3:
		class = FailureSystem
	case resp.Code == 4:
		class = FailureClient
	case resp.Code == 5:
		class = FailureAccess
	case resp.Code == 10:
		class = FailureDirExists
	default:
		class = FailureOther
	}
	return &CommandError{
		Class:  class,
		Args:   args,
		Code:   resp.Code,
		Output: resp.Output,
	}
}

// `IsSystemError()` reports whether err is a MASS-side failure.
func IsSystemError(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.Class == FailureSystem
}

// `IsExcessLoad()` reports whether err indicates that MASS is overloaded:
// a system error, or a task rejected because the storage system is busy.
// The `moo` rate limiter backs off on such errors.
func IsExcessLoad(err error) bool {
	if IsSystemError(err) {
		return true
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Output, "SSC_TASK_REJECTION") ||
		strings.Contains(cmdErr.Output, "SSC_STORAGE_SYSTEM_UNAVAILABLE")
}
