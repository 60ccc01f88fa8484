package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrParse marks a document that could not be parsed: a malformed feed or
// a page the extractor could not make sense of.
var ErrParse = errors.New("parse error")

type FetchErrorKind string

const (
	FetchNetwork     FetchErrorKind = "network"
	FetchTimeout     FetchErrorKind = "timeout"
	FetchHTTPStatus  FetchErrorKind = "http_status"
	FetchParse       FetchErrorKind = "parse"
	FetchContentType FetchErrorKind = "content_type"
)

type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsAuthFailure reports a 401 or 403 response. Only these are recorded as
// permanent crawl failures.
func (e *FetchError) IsAuthFailure() bool {
	return e.Kind == FetchHTTPStatus &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Code is the short form stored with a failed crawl record.
func (e *FetchError) Code() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("http_%d", e.StatusCode)
	}
	return string(e.Kind)
}

func newTransportError(url string, err error) *FetchError {
	kind := FetchNetwork

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = FetchTimeout
	}

	return &FetchError{URL: url, Kind: kind, Err: err}
}
