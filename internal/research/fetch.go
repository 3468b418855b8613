package research

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/spigell/job-assistant/internal/utils"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxPageLength = 2000
	maxPageBytes         = 2 << 20
)

// PageFetcher returns the visible text of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetcher downloads pages no faster than its limiter allows.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxLength int
}

// NewFetcher allows requestsPerSecond page fetches with a burst of one.
// A non-positive rate disables limiting.
func NewFetcher(client *http.Client, requestsPerSecond float64, maxLength int) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxPageLength
	}
	return &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		maxLength: maxLength,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	body := io.LimitReader(resp.Body, maxPageBytes)
	var text string
	if isPlainText(resp.Header.Get("Content-Type")) {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", pageURL, err)
		}
		text = strings.Join(strings.Fields(string(data)), " ")
	} else {
		text = utils.HTMLToText(body)
	}
	return utils.Truncate(strings.TrimSpace(text), f.maxLength), nil
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/plain"
}
