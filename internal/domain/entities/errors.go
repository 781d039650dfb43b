package entities

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse classification of pipeline failures
type ErrorKind string

const (
	KindHTTP       ErrorKind = "http"
	KindExtraction ErrorKind = "extraction"
	KindIO         ErrorKind = "io"
	KindIntegrity  ErrorKind = "integrity"
	KindSignature  ErrorKind = "signature"
	KindUnknown    ErrorKind = "unknown"
)

// HTTPError is returned when a request completes with a status other than 200
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

// ExtractionError means the release page did not have the expected structure
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// IOError wraps a local filesystem failure
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IntegrityError is returned when the downloaded bytes do not hash to the
// published digest
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// SignatureError wraps a failed detached signature check
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature verification failed: %v", e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

// KindOf classifies err by the first typed pipeline error in its chain.
func KindOf(err error) ErrorKind {
	var (
		httpErr       *HTTPError
		extractionErr *ExtractionError
		ioErr         *IOError
		integrityErr  *IntegrityError
		signatureErr  *SignatureError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &integrityErr):
		return KindIntegrity
	case errors.As(err, &signatureErr):
		return KindSignature
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &extractionErr):
		return KindExtraction
	case errors.As(err, &ioErr):
		return KindIO
	default:
		return KindUnknown
	}
}
