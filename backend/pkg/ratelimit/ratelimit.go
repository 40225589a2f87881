// Package `ratelimit` wraps the subset of `github.com/juju/ratelimit` that
// the local archive gateway uses to throttle file copies.
package ratelimit

import (
	"io"

	"github.com/juju/ratelimit"
)

type Bucket = ratelimit.Bucket

// funcs
var Reader = ratelimit.Reader
var NewBucketWithRate = ratelimit.NewBucketWithRate

// `NewReader()` returns `r` limited to `bytesPerSec`.  A non-positive rate
// returns `r` unchanged.
func NewReader(r io.Reader, bytesPerSec float64) io.Reader {
	if bytesPerSec <= 0 {
		return r
	}
	capacity := int64(bytesPerSec)
	if capacity < 1 {
		capacity = 1
	}
	return Reader(r, NewBucketWithRate(bytesPerSec, capacity))
}
