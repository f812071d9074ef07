package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/shelf/internal/settings"
	"github.com/jmgilman/shelf/internal/slogger"
)

const (
	// DefaultTimeout bounds a single registry request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when none is configured.
	DefaultUserAgent = "shelf"

	maxPayloadSize = 32 << 20
)

// Fetch outcomes reported to a Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeHTTPError  = "http_error"
	OutcomeParseError = "parse_error"
	OutcomeError      = "error"
)

// Recorder observes completed fetches.
type Recorder interface {
	ObserveFetch(source, outcome string, elapsed time.Duration)
}

// Fetcher implements Client over HTTP.
type Fetcher struct {
	doer      Doer
	userAgent string
	recorder  Recorder
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRecorder reports every fetch to r.
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// NewFetcher creates a fetcher using doer, or an *http.Client with
// DefaultTimeout when doer is nil.
func NewFetcher(doer Doer, opts ...Option) *Fetcher {
	if doer == nil {
		doer = &http.Client{Timeout: DefaultTimeout}
	}
	f := &Fetcher{
		doer:      doer,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download performs one GET and returns the body of a 2xx response.
// Non-2xx responses are returned as *HTTPError.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadSize))
		return nil, NewHTTPError(url, resp)
	}

	data, err := ReadLimited(resp.Body, maxPayloadSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Fetch issues one GET for src and parses the payload. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, src settings.Source) (Resolved, error) {
	start := time.Now()
	res, err := f.fetch(ctx, src)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	if f.recorder != nil {
		f.recorder.ObserveFetch(src.Key, outcome, elapsed)
	}

	log := slogger.L(ctx).With("source", src.Key, "url", src.URL, "elapsed", elapsed)
	if err != nil {
		log.Debug("registry fetch failed", "outcome", outcome, "error", err)
		return Resolved{}, err
	}
	log.Debug("registry fetched", "official", len(res.Official), "user", len(res.User))
	return res, nil
}

func (f *Fetcher) fetch(ctx context.Context, src settings.Source) (Resolved, error) {
	data, err := f.Download(ctx, src.URL)
	if err != nil {
		return Resolved{}, err
	}

	res, err := Parse(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.URL = src.URL
		}
		return Resolved{}, err
	}
	return res, nil
}

// FetchAll fetches every source concurrently. A failing source never
// cancels the others; each Result carries its own error.
func (f *Fetcher) FetchAll(ctx context.Context, sources []settings.Source) []Result {
	results := make([]Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			res, err := f.Fetch(ctx, src)
			results[i] = Result{
				Source:   src,
				Resolved: res,
				Err:      err,
				Duration: time.Since(start),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func outcomeOf(err error) string {
	var (
		herr *HTTPError
		perr *ParseError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &herr):
		return OutcomeHTTPError
	case errors.As(err, &perr):
		return OutcomeParseError
	default:
		return OutcomeError
	}
}
