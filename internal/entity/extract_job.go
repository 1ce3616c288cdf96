package entity

import (
	"github.com/joseph-ayodele/textract-sheets/constants"
)

// Job is a Textract detection job as last observed by polling.
type Job struct {
	ID            string              `json:"job_id"`
	Status        constants.JobStatus `json:"status"`
	StatusMessage string              `json:"status_message,omitempty"`
}

// DocumentLocation is the S3 object a job reads from.
type DocumentLocation struct {
	Bucket string `json:"Bucket"`
	Name   string `json:"Name"`
}

// ResponseMetadata carries the transport details of the start call.
type ResponseMetadata struct {
	RequestID      string `json:"RequestId,omitempty"`
	HTTPStatusCode int    `json:"HTTPStatusCode"`
}

// JobCreated is the job-creation response. It is published verbatim as
// the notification body, so field names follow the service's casing.
type JobCreated struct {
	JobID            string           `json:"JobId"`
	DocumentLocation DocumentLocation `json:"DocumentLocation"`
	ResponseMetadata ResponseMetadata `json:"ResponseMetadata"`
}
