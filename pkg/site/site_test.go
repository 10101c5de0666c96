package site

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/huace/pkg/huace"
)

const manifest = "id,series,time,place\np1,Trip,2020,Paris\np2,Trip,2021,Rome\n"

func newSite(t *testing.T, csv string) (*huace.Config, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	if csv != "" {
		path := filepath.Join(dir, filepath.FromSlash(huace.DefaultCSVPath))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Trip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Trip", "p1.jpg"), []byte("not really a jpeg"), 0o644))

	c := &huace.Config{SiteDir: dir}
	require.NoError(t, c.ApplyDefaults())

	s, err := New(c)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return c, ts
}

func get(t *testing.T, url string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func TestIndexPage(t *testing.T) {
	_, ts := newSite(t, manifest)

	for _, path := range []string{"/", "/index.html"} {
		resp, doc := get(t, ts.URL+path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
		require.Equal(t, "index", doc.Find("body").AttrOr("data-page", ""))
		require.Equal(t, 1, doc.Find("a.card").Length())
	}
}

func TestSeriesPage(t *testing.T) {
	_, ts := newSite(t, manifest)

	resp, doc := get(t, ts.URL+"/series.html?s=Trip")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, doc.Find("a.photo-card").Length())

	imgs := doc.Find("a.photo-card img").Map(func(_ int, s *goquery.Selection) string { return s.AttrOr("src", "") })
	require.Equal(t, []string{"./Trip/p1.jpg", "./Trip/p2.jpg"}, imgs)
}

func TestPhotoPage(t *testing.T) {
	_, ts := newSite(t, manifest)

	resp, doc := get(t, ts.URL+"/photo.html?s=Trip&id=p2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "photo.html?s=Trip&id=p1", doc.Find("#prev-photo").AttrOr("href", ""))
	require.Equal(t, "true", doc.Find("#next-photo").AttrOr("aria-disabled", ""))

	resp, doc = get(t, ts.URL+"/photo.html?s=Trip&id=nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, huace.ErrPhotoNotFound.Error(), doc.Find("[data-error]").Text())
}

func TestMissingManifest(t *testing.T) {
	_, ts := newSite(t, "")

	resp, doc := get(t, ts.URL+"/series.html?s=Trip")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, huace.ErrFetch.Error(), doc.Find("[data-error]").Text())
	require.Equal(t, 0, doc.Find("a.photo-card").Length())
}

func TestManifestReadPerRequest(t *testing.T) {
	c, ts := newSite(t, manifest)

	_, doc := get(t, ts.URL+"/series.html?s=Trip")
	require.Equal(t, 2, doc.Find("a.photo-card").Length())

	path := filepath.Join(c.SiteDir, filepath.FromSlash(huace.DefaultCSVPath))
	require.NoError(t, os.WriteFile(path, []byte(manifest+"p3,Trip,,\n"), 0o644))

	_, doc = get(t, ts.URL+"/series.html?s=Trip")
	require.Equal(t, 3, doc.Find("a.photo-card").Length())
}

func TestStaticFiles(t *testing.T) {
	_, ts := newSite(t, manifest)

	resp, err := http.Get(ts.URL + "/Trip/p1.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWatchReloadsTheme(t *testing.T) {
	themeDir := filepath.Join(t.TempDir(), "theme")
	require.NoError(t, huace.EjectTheme(themeDir))

	dir := t.TempDir()
	c := &huace.Config{SiteDir: dir, ThemeDir: themeDir}
	require.NoError(t, c.ApplyDefaults())

	s, err := New(c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)

	// give the watcher a moment to register
	time.Sleep(100 * time.Millisecond)

	index := filepath.Join(themeDir, "index.tmpl")
	require.NoError(t, os.WriteFile(index, []byte(`{{define "index"}}reloaded{{end}}`), 0o644))

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/index.html")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var sb strings.Builder
		_, _ = io.Copy(&sb, resp.Body)
		return strings.Contains(sb.String(), "reloaded")
	}, 5*time.Second, 50*time.Millisecond)
}
