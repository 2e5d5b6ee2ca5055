// Package plantuml locates or downloads the PlantUML jar and uses it to turn
// .puml files into images.
package plantuml

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"classmap/internal/config"
)

// Fetcher handles PlantUML jar downloads and caching.
type Fetcher struct {
	cacheDir     string
	client       *http.Client
	resolver     VersionResolver
	downloadBase string
	backoff      func(attempt int) time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCacheDir overrides the cache directory.
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) { f.cacheDir = dir }
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithResolver sets how the latest release is found.
func WithResolver(r VersionResolver) Option {
	return func(f *Fetcher) { f.resolver = r }
}

// WithDownloadBase replaces https://github.com in download URLs.
func WithDownloadBase(base string) Option {
	return func(f *Fetcher) { f.downloadBase = base }
}

// WithBackoff sets the delay before retry attempt n (n >= 2).
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(f *Fetcher) { f.backoff = fn }
}

// New creates a Fetcher using the classmap cache directory.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client:   &http.Client{Timeout: 5 * time.Minute},
		resolver: NewGitHubResolver("", "plantuml", "plantuml"),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cacheDir == "" {
		dir, err := config.JarDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get cache dir: %w", err)
		}
		f.cacheDir = dir
	}
	return f, nil
}

// EnsureJar returns the path of a usable PlantUML jar. Priority:
// 1. cfg.JarPath (if it exists)
// 2. Cache directory
// 3. Download
func (f *Fetcher) EnsureJar(ctx context.Context, cfg config.PlantUMLConfig) (string, error) {
	if cfg.JarPath != "" {
		if _, err := os.Stat(cfg.JarPath); err == nil {
			log.Printf("[plantuml] Using configured jar: %s", cfg.JarPath)
			return cfg.JarPath, nil
		}
		log.Printf("[plantuml] Configured jar not found: %s, falling back...", cfg.JarPath)
	}

	meta := ResolveMetadata(ctx, f.resolver, cfg.Version, cfg.SHA256, f.downloadBase)
	cached := filepath.Join(f.cacheDir, meta.JarName)
	if _, err := os.Stat(cached); err == nil {
		log.Printf("[plantuml] Using cached jar: %s", cached)
		return cached, nil
	}

	log.Printf("[plantuml] Jar not found, downloading %s...", meta.Version)
	if err := f.download(ctx, meta, cached); err != nil {
		return "", fmt.Errorf("failed to download PlantUML %s: %w", meta.Version, err)
	}
	log.Printf("[plantuml] Successfully downloaded %s", cached)
	return cached, nil
}

// download fetches meta into dest through a temporary file so that an
// interrupted download never leaves a partial jar in the cache.
func (f *Fetcher) download(ctx context.Context, meta *Metadata, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "classmap-plantuml-*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if err := f.downloadFile(ctx, meta.DownloadURL, tmpFile); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if meta.Checksum != "" {
		if err := verifyChecksum(tmpFile.Name(), meta.Checksum); err != nil {
			return fmt.Errorf("checksum verification failed: %w", err)
		}
	}
	return os.Rename(tmpFile.Name(), dest)
}

// downloadFile downloads a file with retries.
func (f *Fetcher) downloadFile(ctx context.Context, url string, dest *os.File) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			backoff := f.backoff(attempt)
			log.Printf("[plantuml] Retry %d/%d after %v...", attempt, maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			continue
		}

		if _, err := dest.Seek(0, io.SeekStart); err != nil {
			resp.Body.Close()
			return err
		}
		if err := dest.Truncate(0); err != nil {
			resp.Body.Close()
			return err
		}

		_, err = io.Copy(dest, resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("download failed after %d attempts: %w", maxRetries, lastErr)
}

// verifyChecksum verifies the SHA256 checksum of a file.
func verifyChecksum(filePath, expectedChecksum string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return err
	}

	actualChecksum := hex.EncodeToString(h.Sum(nil))
	if actualChecksum != expectedChecksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}
	return nil
}
