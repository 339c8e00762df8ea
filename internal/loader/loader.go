// Package loader implements the Source Loader (component D, spec.md
// §4.4): fetching the raw bytes behind a `preview(url, ...)` call,
// either over HTTP or from the local filesystem.
//
// The HTTP path is grounded on the teacher's imageFromDecap in
// image.go/main.go, which posts to an external renderer with a fixed
// client timeout and treats a non-200/non-image response as an error
// worth surfacing rather than silently swallowing; the same shape
// (http.Client with a fixed Timeout, explicit status-code check) is
// reused here for a plain GET against the preview URL.
package loader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrImageNotFound is returned when neither HTTP fetch nor filesystem
// lookup can locate the requested resource (spec.md §4.4 "Image not
// found").
var ErrImageNotFound = errors.New("nocojs: image not found")

const httpTimeout = 10 * time.Second

// Loader fetches source image bytes for a given url string, resolving
// relative paths against publicDir the way the Transform Engine and
// the standalone get_placeholder flow each configure it (spec.md §4.4).
type Loader struct {
	publicDir string
	client    *http.Client
}

// New returns a Loader that resolves non-HTTP urls relative to
// publicDir. An empty publicDir defaults to "public", matching the
// standalone get_placeholder flow's default (spec.md §4.4).
func New(publicDir string) *Loader {
	if publicDir == "" {
		publicDir = "public"
	}
	return &Loader{
		publicDir: publicDir,
		client:    &http.Client{Timeout: httpTimeout},
	}
}

// Load fetches the bytes behind url: an absolute http(s) URL is GET'd
// directly, everything else is treated as a path rooted at publicDir,
// with a single leading slash stripped before joining (spec.md §4.4).
func (l *Loader) Load(url string) ([]byte, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return l.loadHTTP(url)
	}
	return l.loadFile(url)
}

func (l *Loader) loadHTTP(url string) ([]byte, error) {
	resp, err := l.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageNotFound, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status %s", ErrImageNotFound, url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageNotFound, url, err)
	}
	return data, nil
}

func (l *Loader) loadFile(rel string) ([]byte, error) {
	rel = strings.TrimPrefix(rel, "/")
	path := filepath.Join(l.publicDir, filepath.FromSlash(rel))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageNotFound, path, err)
	}
	return data, nil
}
