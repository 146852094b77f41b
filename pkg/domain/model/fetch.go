package model

import (
	"net/http"
	"time"
)

// RemoteInfo holds response metadata from a HEAD or GET request. It is
// used for diagnostic logging only; control flow never depends on it.
type RemoteInfo struct {
	StatusCode    int
	ContentLength int64
	ContentType   string
	Headers       http.Header
}

// ResourceResult is the per-workbook outcome of one sync run
type ResourceResult struct {
	Resource Resource
	Path     string // Destination path, empty if the env var was missing
	Size     int64  // Size of the downloaded file in bytes
	Err      error  // nil on success
}

// OK reports whether the workbook was mirrored successfully
func (r *ResourceResult) OK() bool {
	return r.Err == nil
}

// Report aggregates the outcome of a full sync run
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []ResourceResult
}

// OK reports whether every workbook was mirrored successfully
func (r *Report) OK() bool {
	for i := range r.Results {
		if !r.Results[i].OK() {
			return false
		}
	}
	return true
}

// Failed returns the results that did not succeed
func (r *Report) Failed() []ResourceResult {
	var failed []ResourceResult
	for i := range r.Results {
		if !r.Results[i].OK() {
			failed = append(failed, r.Results[i])
		}
	}
	return failed
}
