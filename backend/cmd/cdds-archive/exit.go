package main

import (
	"os"
)

// Exit codes.  Invalid datasets are reported with `ExitCritical`
// independent of their number, since exit statuses are truncated to 8 bits.
const (
	ExitOK       = 0
	ExitCritical = 1
	ExitFatal    = 2
)

// `storeExitCode()` maps the number of invalid datasets to an exit code.
func storeExitCode(nInvalid int) int {
	if nInvalid > 0 {
		return ExitCritical
	}
	return ExitOK
}

// `fatalw()` logs an error and exits with `ExitFatal`.
func fatalw(msg string, kv ...interface{}) {
	lg.Errorw(msg, kv...)
	os.Exit(ExitFatal)
}
