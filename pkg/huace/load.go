package huace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"k8s.io/klog/v2"
)

// ErrFetch is the message shown when the manifest cannot be loaded.
var ErrFetch = errors.New("CSV 加载失败，请检查 data 路径或权限。")

// FetchError describes a failed manifest read.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// HTTPClient is used for manifests served over http(s).
var HTTPClient = http.DefaultClient

// Fetch reads the manifest text, bypassing any HTTP cache.
func Fetch(ctx context.Context, c *Config) (string, error) {
	src := c.CSVPath
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fetchURL(ctx, src)
	}

	path := c.sitePath(src)
	klog.V(1).Infof("reading manifest %s", path)
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", &FetchError{Source: path, Err: err}
	}
	return string(bs), nil
}

func fetchURL(ctx context.Context, src string) (string, error) {
	klog.V(1).Infof("fetching manifest %s", src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", &FetchError{Source: src, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return "", &FetchError{Source: src, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: src, Status: resp.StatusCode}
	}

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Source: src, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(bs), nil
}

// Load reads and normalizes the manifest.
func Load(ctx context.Context, c *Config) ([]*Photo, error) {
	text, err := Fetch(ctx, c)
	if err != nil {
		return nil, err
	}

	rows := ParseCSV(text)
	ps := Normalize(c, rows)
	klog.V(1).Infof("loaded %d photos from %d rows", len(ps), len(rows))
	return ps, nil
}

// Build performs one page load: the manifest is read and the document for
// page composed. Load failures end up in Document.Err.
func Build(ctx context.Context, c *Config, page Page, q url.Values) *Document {
	ps, err := Load(ctx, c)
	if err != nil {
		klog.Errorf("load failed: %v", err)
		return &Document{Page: page, Err: userMessage(err), Status: http.StatusBadGateway}
	}
	return Compose(c, page, ps, q)
}

func userMessage(err error) string {
	if errors.Is(err, ErrFetch) {
		return ErrFetch.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "CSV 加载失败，请稍后再试。"
}
