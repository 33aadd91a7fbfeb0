package blockload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DefaultMaxFragmentBytes caps fragment bodies read by HTTPFetcher.
const DefaultMaxFragmentBytes = 2 << 20

// HTTPFetcher fetches fragments over HTTP. Relative paths are resolved
// against Base. Any status outside 2xx is reported as unavailable.
type HTTPFetcher struct {
	Client   *http.Client
	Base     *url.URL
	MaxBytes int64
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, p string) (string, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFragmentUnavailable, p, err)
	}
	target := ref
	if f.Base != nil {
		target = f.Base.ResolveReference(ref)
	}
	if !target.IsAbs() {
		return "", fmt.Errorf("%w: %s: no base URL", ErrFragmentUnavailable, p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFragmentUnavailable, p, err)
	}
	req.Header.Set("Accept", "text/html")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFragmentUnavailable, p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrFragmentUnavailable, p, resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxFragmentBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFragmentUnavailable, p, err)
	}
	return string(body), nil
}

// FSFetcher serves fragments from a file system; the fetch path is taken
// relative to its root.
type FSFetcher struct {
	FS fs.FS
}

// Fetch implements Fetcher.
func (f FSFetcher) Fetch(_ context.Context, p string) (string, error) {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: not found", ErrFragmentUnavailable, p)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFragmentUnavailable, p, err)
	}
	return string(data), nil
}
