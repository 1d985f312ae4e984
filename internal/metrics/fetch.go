package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"opsboard/pkg/models"
)

// FetchError reports a transport failure or a non-success status while
// retrieving the CSV feed. Parse-level problems never produce it; they
// degrade to empty or partial results instead.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves and aggregates CSV feeds. Start calls supersede
// each other: when the inputs change while a fetch is in flight, the
// older completion is discarded instead of overwriting newer results.
type Fetcher struct {
	client *http.Client

	mu  sync.Mutex
	gen uint64
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch downloads the feed at rawURL and aggregates rows for team.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, team string) ([]models.ProgressRecord, error) {
	text, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return Aggregate(text, team), nil
}

// Start runs Fetch in the background and hands the outcome to deliver.
// Only the most recent Start call on this Fetcher delivers; a
// completion that has been superseded is dropped silently.
func (f *Fetcher) Start(ctx context.Context, rawURL, team string, deliver func([]models.ProgressRecord, error)) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	go func() {
		records, err := f.Fetch(ctx, rawURL, team)

		f.mu.Lock()
		stale := gen != f.gen
		f.mu.Unlock()
		if stale {
			return
		}
		deliver(records, err)
	}()
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	return string(body), nil
}
