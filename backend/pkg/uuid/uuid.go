// Package `uuid` is a subset of `google/uuid`.  See GoDoc
// <https://godoc.org/github.com/google/uuid>.
package uuid

import (
	"github.com/google/uuid"
)

// `I` is a `google/uuid.UUID`.
type I = uuid.UUID

var (
	// vars
	Nil = uuid.Nil

	// funcs
	Must    = uuid.Must
	NewSHA1 = uuid.NewSHA1
	Parse   = uuid.Parse
)

// `NsDataset` is the namespace for dataset ids.
var NsDataset = Must(Parse("5e0e36f7-3d5f-4c4c-9a1e-4c2a6d3e9b10"))

// `DatasetID()` returns a stable name-based id for the dataset whose archive
// path is `archivePath`, so that log lines of different runs can be joined.
func DatasetID(archivePath string) I {
	return NewSHA1(NsDataset, []byte(archivePath))
}
