package constants

// JobStatus is the lifecycle state Textract reports for a detection job.
type JobStatus string

// Stable values (exactly what the service returns).
const (
	JobStatusInProgress     JobStatus = "IN_PROGRESS"
	JobStatusSucceeded      JobStatus = "SUCCEEDED"
	JobStatusFailed         JobStatus = "FAILED"
	JobStatusPartialSuccess JobStatus = "PARTIAL_SUCCESS" // terminal, treated as failure
)

// Terminal reports whether polling should stop.
func (s JobStatus) Terminal() bool {
	return s != JobStatusInProgress
}

// BlockTypeLine marks a block holding one line of detected text.
const BlockTypeLine = "LINE"
