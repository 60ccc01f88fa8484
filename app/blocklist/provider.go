package blocklist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const maxListSize = 32 << 20

type Config struct {
	Path      string
	URL       string
	MaxAge    time.Duration // zero keeps the cached copy forever
	UserAgent string
}

// Provider keeps an ad-block rule list cached on disk and answers whether a
// URL should be blocked. Until rules are loaded nothing is blocked.
type Provider struct {
	httpClient *http.Client
	config     Config

	mu       sync.Mutex
	rules    *RuleSet
	loadedAt time.Time
}

func NewProvider(httpClient *http.Client, config Config) *Provider {
	return &Provider{
		httpClient: httpClient,
		config:     config,
	}
}

// Load reads the cached list, downloading it first when the cache is missing
// or older than MaxAge. A failed download falls back to an existing cache.
func (p *Provider) Load(ctx context.Context) error {
	info, err := os.Stat(p.config.Path)
	cached := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat blocklist cache: %w", err)
	}

	if !cached || p.expired(info.ModTime()) {
		slog.Info("Downloading blocklist", "url", p.config.URL)
		if err := p.download(ctx); err != nil {
			if !cached {
				return fmt.Errorf("failed to download blocklist: %w", err)
			}
			slog.Warn("Failed to refresh blocklist, using cached copy", "path", p.config.Path, "error", err)
		}
	}

	return p.loadFile()
}

// RefreshIfStale loads the list if no load has succeeded yet or MaxAge has
// passed since the last one.
func (p *Provider) RefreshIfStale(ctx context.Context) error {
	p.mu.Lock()
	loadedAt := p.loadedAt
	p.mu.Unlock()

	if loadedAt.IsZero() || p.expired(loadedAt) {
		return p.Load(ctx)
	}
	return nil
}

func (p *Provider) ShouldBlock(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rules.ShouldBlock(url)
}

func (p *Provider) expired(since time.Time) bool {
	return p.config.MaxAge > 0 && time.Since(since) > p.config.MaxAge
}

func (p *Provider) download(ctx context.Context) error {
	if p.config.URL == "" {
		return errors.New("blocklist URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if _, stats, err := Parse(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse downloaded list: %w", err)
	} else if stats.Rules == 0 {
		return errors.New("downloaded list contains no usable rules")
	}

	return writeFileAtomic(p.config.Path, data)
}

func (p *Provider) loadFile() error {
	f, err := os.Open(p.config.Path)
	if err != nil {
		return fmt.Errorf("failed to open blocklist: %w", err)
	}
	defer f.Close()

	rules, stats, err := Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse blocklist: %w", err)
	}

	p.mu.Lock()
	p.rules = rules
	p.loadedAt = time.Now()
	p.mu.Unlock()

	slog.Info("Blocklist loaded", "path", p.config.Path, "rules", stats.Rules, "skipped", stats.Skipped)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
