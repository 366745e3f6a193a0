package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultRetryDelays is the fixed backoff schedule applied to page fetches.
var DefaultRetryDelays = []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Fetcher retrieves pages with a bounded retry schedule. Once the schedule
// is exhausted it returns an empty page and no error: callers treat a missing
// page as a soft failure for that page only, never for the whole source.
type Fetcher struct {
	client      *http.Client
	retryDelays []time.Duration
	userAgent   string
}

// NewFetcher wires an HTTP client and retry schedule; nil arguments select
// the defaults.
func NewFetcher(client *http.Client, retryDelays []time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if retryDelays == nil {
		retryDelays = DefaultRetryDelays
	}
	return &Fetcher{client: client, retryDelays: retryDelays, userAgent: defaultUserAgent}
}

// Fetch downloads a page, retrying transient failures on the fixed schedule.
// The attempt counter is explicit state so the schedule is bounded and
// directly testable.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	for attempt := 0; ; attempt++ {
		body, err := f.get(ctx, url)
		if err == nil {
			return body
		}

		if attempt >= len(f.retryDelays) {
			fmt.Fprintf(os.Stderr, "  fetch %s failed after %d retries: %v\n", url, attempt, err)
			return ""
		}

		delay := f.retryDelays[attempt]
		fmt.Fprintf(os.Stderr, "  fetch %s retry in %s: %v\n", url, delay, err)
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(delay):
		}
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
