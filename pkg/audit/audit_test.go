package audit

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tstromberg/huace/pkg/huace"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newSite lays out a site with one good, one broken and one orphaned image.
func newSite(t *testing.T) (*huace.Config, []*huace.Photo) {
	t.Helper()
	dir := t.TempDir()

	// decoders sniff content, so a PNG named .jpg still decodes
	writePNG(t, filepath.Join(dir, "Trip", "good.jpg"))
	writeFile(t, filepath.Join(dir, "Trip", "bad.jpg"), "\xff\xd8 truncated")
	writePNG(t, filepath.Join(dir, "Trip", "stray.png"))
	writeFile(t, filepath.Join(dir, "Trip", "notes.txt"), "not an image")
	writePNG(t, filepath.Join(dir, ".cache", "skip.png"))

	c := &huace.Config{SiteDir: dir}
	require.NoError(t, c.ApplyDefaults())

	csv := "id,series,time\ngood,Trip,2020\nbad,Trip,\ngone,Trip,\ngood,Trip,dup\n"
	return c, huace.Normalize(c, huace.ParseCSV(csv))
}

func TestRun(t *testing.T) {
	c, ps := newSite(t)

	r, err := Run(context.Background(), c, ps, Options{Workers: 2})
	require.NoError(t, err)
	require.False(t, r.OK())
	require.Equal(t, 4, r.Checked)

	require.Len(t, r.Missing, 1)
	require.Equal(t, "gone", r.Missing[0].ID)

	require.Len(t, r.Broken, 1)
	require.Equal(t, "bad", r.Broken[0].Photo.ID)
	require.Error(t, r.Broken[0].Err)

	require.Equal(t, []string{filepath.Join(c.SiteDir, "Trip", "stray.png")}, r.Orphans)
	require.Equal(t, []string{"Trip/good"}, r.Duplicates)
	require.Empty(t, r.Suggestions)
}

func TestRunSkipDecode(t *testing.T) {
	c, ps := newSite(t)

	r, err := Run(context.Background(), c, ps, Options{SkipDecode: true})
	require.NoError(t, err)
	require.Empty(t, r.Broken)
	require.Len(t, r.Missing, 1)
	require.False(t, r.OK())
}

func TestRunSkipOrphans(t *testing.T) {
	c, ps := newSite(t)

	r, err := Run(context.Background(), c, ps, Options{SkipOrphans: true, SkipDecode: true})
	require.NoError(t, err)
	require.Nil(t, r.Orphans)
	require.Len(t, r.Missing, 1)
	require.Equal(t, []string{"Trip/good"}, r.Duplicates)
}

func TestRunClean(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photos", "A", "a1.jpg"))

	c := &huace.Config{SiteDir: dir, PhotoRoot: "photos"}
	require.NoError(t, c.ApplyDefaults())
	ps := huace.Normalize(c, huace.ParseCSV("id,series\na1,A\n"))
	require.Equal(t, "photos/A/a1.jpg", ps[0].Image)

	r, err := Run(context.Background(), c, ps, Options{})
	require.NoError(t, err)
	require.True(t, r.OK())
	require.Empty(t, r.Orphans)
	require.Empty(t, r.Duplicates)
}

func TestRunMissingPhotoRoot(t *testing.T) {
	c := &huace.Config{SiteDir: t.TempDir(), PhotoRoot: "nowhere"}
	require.NoError(t, c.ApplyDefaults())
	ps := huace.Normalize(c, huace.ParseCSV("id\nx\n"))

	r, err := Run(context.Background(), c, ps, Options{})
	require.NoError(t, err)
	require.Len(t, r.Missing, 1)
	require.Empty(t, r.Orphans)
}

func TestSuggest(t *testing.T) {
	taken := time.Date(2019, 5, 4, 10, 30, 0, 0, time.UTC)

	blank := &huace.Photo{ID: "p1"}
	got := suggest(blank, metadata{Taken: taken, Caption: " harbour at dusk "})
	require.Equal(t, []Suggestion{
		{Photo: blank, Field: huace.FieldTime, Value: "2019-05-04"},
		{Photo: blank, Field: huace.FieldHighlight, Value: "harbour at dusk"},
	}, got)

	filled := &huace.Photo{ID: "p2", Time: "2020", Highlight: "fog"}
	require.Empty(t, suggest(filled, metadata{Taken: taken, Headline: "x"}))

	require.Empty(t, suggest(&huace.Photo{ID: "p3"}, metadata{}))
}

func TestRunExif(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}
	c, ps := newSite(t)

	r, err := Run(context.Background(), c, ps, Options{Exif: true, SkipDecode: true})
	require.NoError(t, err)
	// generated PNGs carry no capture time or caption
	require.Empty(t, r.Suggestions)
}
