// Package registry fetches plugin listings from remote JSON registries and
// normalizes their payloads.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/shelf/internal/settings"
)

// Sentinel errors for registry operations. HTTPError matches them with
// errors.Is based on its status code.
var (
	// ErrNotFound is returned when the registry document does not exist.
	ErrNotFound = errors.New("registry not found")

	// ErrUnauthorized is returned when the registry rejects the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTooLarge is returned when a response body exceeds its size limit.
	ErrTooLarge = errors.New("response body too large")
)

// Entry is one plugin as published by a registry.
type Entry struct {
	// Identity is the normalized install URL. It is not part of the wire format.
	Identity string `json:"-"`

	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Authors        []string `json:"authors"`
	Status         string   `json:"status"`
	InstallURL     string   `json:"installUrl"`
	SourceURL      string   `json:"sourceUrl,omitempty"`
	WarningMessage string   `json:"warningMessage,omitempty"`
}

// Resolved holds the entries of one registry split by section.
type Resolved struct {
	Official []Entry
	User     []Entry
}

// Len returns the total number of entries.
func (r Resolved) Len() int {
	return len(r.Official) + len(r.User)
}

// Result is the outcome of fetching a single source during a cycle.
type Result struct {
	Source   settings.Source
	Resolved Resolved
	Err      error
	Duration time.Duration
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches registry sources.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/client.go . Client
type Client interface {
	// Fetch issues one GET for the source and parses the payload.
	Fetch(ctx context.Context, src settings.Source) (Resolved, error)

	// FetchAll fetches every source concurrently and returns results in
	// source order once all of them have settled.
	FetchAll(ctx context.Context, sources []settings.Source) []Result
}

// HTTPError reports a non-2xx registry response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Is maps well-known status codes onto the package sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// NewHTTPError builds an HTTPError for resp, keeping the reason phrase the
// server sent. Responses without one fall back to the standard text.
func NewHTTPError(url string, resp *http.Response) *HTTPError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     reason,
	}
}

// ReadLimited reads r to the end, failing with ErrTooLarge instead of
// truncating when more than limit bytes arrive.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// ParseError reports a payload that is not valid registry JSON.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parse registry payload: %v", e.Err)
	}
	return fmt.Sprintf("parse registry payload from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NormalizeIdentity turns an install URL into the identity used by the
// installer by appending a trailing slash when missing.
func NormalizeIdentity(installURL string) string {
	if strings.HasSuffix(installURL, "/") {
		return installURL
	}
	return installURL + "/"
}
