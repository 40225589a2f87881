package dataset

// `OpState` is the archive operation that the stored data of a dataset
// permits.  Valid states lead to a mutation; the others are conflicts that
// exclude the dataset from the run.
type OpState int

const (
	OpUnspecified OpState = iota
	OpFirstPublication
	OpAppending
	OpPrepending
	OpProcessingContinuation
	OpPreviouslyWithdrawn
	OpAlreadyPublished
	OpMultipleEmbargoed
	OpDatestampReuse
	OpUnknown
)

func (s OpState) String() string {
	switch s {
	case OpFirstPublication:
		return "FIRST_PUBLICATION"
	case OpAppending:
		return "APPENDING"
	case OpPrepending:
		return "PREPENDING"
	case OpProcessingContinuation:
		return "PROCESSING_CONTINUATION"
	case OpPreviouslyWithdrawn:
		return "PREVIOUSLY_WITHDRAWN"
	case OpAlreadyPublished:
		return "ALREADY_PUBLISHED"
	case OpMultipleEmbargoed:
		return "MULTIPLE_EMBARGOED"
	case OpDatestampReuse:
		return "DATESTAMP_REUSE"
	case OpUnknown:
		return "UNKNOWN"
	default:
		return "UNSPECIFIED"
	}
}

// `Valid()` reports whether the state permits archiving.
func (s OpState) Valid() bool {
	switch s {
	case OpFirstPublication,
		OpAppending,
		OpPrepending,
		OpProcessingContinuation,
		OpPreviouslyWithdrawn:
		return true
	default:
		return false
	}
}

func (s OpState) Description() string {
	switch s {
	case OpFirstPublication:
		return "First publication."
	case OpAppending:
		return "Append (in time) to already published data."
	case OpPrepending:
		return "Prepend (in time) to already published data."
	case OpProcessingContinuation:
		return "Continue aborted data storage process."
	case OpPreviouslyWithdrawn:
		return "Publishing data for variable where previously withdrawn."
	case OpAlreadyPublished:
		return "Attempting to publish data for variable and time " +
			"period already in available state."
	case OpMultipleEmbargoed:
		return "Attempting to publish data when there is already " +
			"data in the embargoed state with a different datestamp."
	case OpDatestampReuse:
		return "Attempting to publish data with a previously used " +
			"datestamp."
	case OpUnknown:
		return "Unknown invalid state."
	default:
		return "Unspecified state."
	}
}
