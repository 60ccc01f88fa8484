package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

// SourceFetcher downloads the newsletter feed, falling back to a local copy
// when the download fails.
type SourceFetcher struct {
	httpClient   *http.Client
	url          string
	fallbackFile string
	userAgent    string
}

func NewSourceFetcher(httpClient *http.Client, url, fallbackFile, userAgent string) *SourceFetcher {
	return &SourceFetcher{
		httpClient:   httpClient,
		url:          url,
		fallbackFile: fallbackFile,
		userAgent:    userAgent,
	}
}

func (f *SourceFetcher) Run(ctx context.Context) ([]byte, error) {
	data, fetchErr := fetch(ctx, f.httpClient, f.url, f.userAgent, nil)
	if fetchErr == nil {
		return data, nil
	}

	slog.Error("Failed to fetch source feed", "url", f.url, "error", fetchErr)

	if f.fallbackFile == "" {
		return nil, fetchErr
	}

	data, err := os.ReadFile(f.fallbackFile)
	if err != nil {
		return nil, fmt.Errorf("%w (fallback %s: %v)", fetchErr, f.fallbackFile, err)
	}

	slog.Info("Falling back to local file", "path", f.fallbackFile)
	return data, nil
}
