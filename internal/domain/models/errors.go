package models

import (
	"fmt"
	"strings"
)

// RemoteAPIError reports that the remote reasoning API failed after all
// retry attempts were exhausted.
type RemoteAPIError struct {
	Attempts int
	Err      error
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote api failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RemoteAPIError) Unwrap() error { return e.Err }

// ParseError reports a remote response that was received but is not a valid
// signal payload: not JSON, missing required fields, or out-of-range values.
// The remote parser is strict: it rejects instead of clamping.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse remote response: " + e.Reason
}

// SensitiveDataError reports a privacy gate blacklist match in an outbound
// payload. The remote path is aborted; the request falls back locally.
type SensitiveDataError struct {
	Fields []string // dotted paths of offending keys
}

func (e *SensitiveDataError) Error() string {
	return "payload contains sensitive fields: " + strings.Join(e.Fields, ", ")
}
