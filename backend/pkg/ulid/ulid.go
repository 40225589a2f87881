// Package `ulid` wraps `oklog/ulid`.  Store runs are identified by a ULID,
// which sorts by creation time and is recorded in supersession manifests.
package ulid

import (
	crand "crypto/rand"
	"time"

	"github.com/oklog/ulid"
)

// `I` is an `oklog/ulid.ULID`.
type I = ulid.ULID

// `Nil` is the all-zero null value.
var Nil I

// funcs
var Parse = ulid.Parse

func New() (I, error) {
	return ulid.New(ulid.Now(), crand.Reader)
}

func Time(id I) time.Time {
	ms := id.Time()
	s := ms / 1000
	ns := (ms % 1000) * 1000 * 1000
	return time.Unix(int64(s), int64(ns)).UTC()
}

const RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"

func TimeString(id I) string {
	return Time(id).Format(RFC3339Milli)
}
