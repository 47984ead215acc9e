package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deckhand/internal/logging"
	"deckhand/internal/services"
)

const userAgent = "deckhand/0.1"

// Fetcher acquires one image's bytes into a local file. Implementations must
// be safe for concurrent use by the pipeline's workers.
type Fetcher interface {
	Fetch(ctx context.Context, source, localPath string) error
}

// HTTPFetcher downloads images over HTTP. Plain URLs are fetched directly;
// anything else is treated as a Google Drive file ID.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// New creates a fetcher with the given per-request timeout.
func New(timeout time.Duration, logger *slog.Logger, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	fetcher := &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logging.WithComponent(logger, "fetch"),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads source into localPath via a temp file plus rename, so a
// partial download can never be mistaken for a cached image.
func (f *HTTPFetcher) Fetch(ctx context.Context, source, localPath string) error {
	target, isDrive := resolveSource(source)

	body, err := f.get(ctx, target)
	if err != nil {
		return err
	}
	defer body.reader.Close()

	if isDrive && body.isHTML() {
		// Drive answers large files with a virus-scan interstitial instead
		// of the bytes; confirm through its form and fetch again.
		confirmURL, err := parseDriveInterstitial(body.reader)
		body.reader.Close()
		if err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "drive confirm", source, err)
		}
		f.logger.Debug("following drive interstitial", logging.String("source", source))
		if body, err = f.get(ctx, confirmURL); err != nil {
			return err
		}
		defer body.reader.Close()
		if body.isHTML() {
			return services.Wrap(services.ErrFetch, "fetch", "drive confirm", fmt.Sprintf("%s: drive did not release the file", source), nil)
		}
	}

	return writeAtomic(localPath, body.reader)
}

type response struct {
	reader      io.ReadCloser
	contentType string
}

func (r response) isHTML() bool {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html"
}

func (f *HTTPFetcher) get(ctx context.Context, target string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, services.Wrap(services.ErrFetch, "fetch", "build request", target, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return response{}, services.Wrap(services.ErrFetch, "fetch", "get", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return response{}, services.Wrap(services.ErrFetch, "fetch", "get", fmt.Sprintf("%s: unexpected status %d", target, resp.StatusCode), nil)
	}
	return response{reader: resp.Body, contentType: resp.Header.Get("Content-Type")}, nil
}

// resolveSource maps an order source to a URL, reporting whether it points
// at Google Drive.
func resolveSource(source string) (string, bool) {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, strings.Contains(trimmed, "drive.google.com") || strings.Contains(trimmed, "drive.usercontent.google.com")
	}
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(trimmed), true
}

func writeAtomic(localPath string, reader io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "ensure cache dir", localPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".*")
	if err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "create temp file", localPath, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrFetch, "fetch", "write", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrFetch, "fetch", "close temp file", localPath, err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrFetch, "fetch", "finalize", localPath, err)
	}
	return nil
}
