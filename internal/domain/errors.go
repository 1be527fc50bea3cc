package domain

import (
	"fmt"
	"time"
)

// ValidationError rejects a malformed ingestion request before any external
// job is started.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid ingestion request: " + e.Reason
}

// ExternalJobError means the extraction service reported failure or partial
// success, or never returned a job identifier.
type ExternalJobError struct {
	JobID   string
	Message string
}

func (e *ExternalJobError) Error() string {
	if e.JobID == "" {
		return "extraction job error: " + e.Message
	}
	return fmt.Sprintf("extraction job %s: %s", e.JobID, e.Message)
}

// ExternalJobTimeout means the poll loop exhausted its wall-clock deadline
// while the extraction job was still in progress.
type ExternalJobTimeout struct {
	JobID  string
	Waited time.Duration
}

func (e *ExternalJobTimeout) Error() string {
	return fmt.Sprintf("extraction job %s timed out after %s", e.JobID, e.Waited)
}

// ModelResponseParseError means the generative model's output did not parse
// as the expected JSON shape. The invocation gets no partial credit.
type ModelResponseParseError struct {
	Cause error
}

func (e *ModelResponseParseError) Error() string {
	return "model response did not parse: " + e.Cause.Error()
}

func (e *ModelResponseParseError) Unwrap() error { return e.Cause }

// NotFoundError targets an update at a record that does not exist.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// PersistenceError wraps a failed store write. Earlier writes in the same
// batch are not rolled back.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
