package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/tstromberg/huace/pkg/huace"
)

var exifDate = "2006:01:02 15:04:05"

// Suggestion is a manifest value recovered from an image's embedded metadata.
type Suggestion struct {
	Photo *huace.Photo
	Field huace.Field
	Value string
}

// metadata is what we care about from an image's EXIF/IPTC/XMP tags.
type metadata struct {
	Taken    time.Time
	Headline string
	Caption  string
}

func readMetadata(path string, et *exiftool.Exiftool) (metadata, error) {
	m := metadata{}
	fis := et.ExtractMetadata(path)
	if len(fis) == 0 {
		return m, fmt.Errorf("no metadata for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return m, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	var err error
	m.Headline, err = fi.GetString("Headline")
	if err != nil {
		klog.V(2).Infof("unable to get headline for %s: %v", path, err)
	}
	m.Caption, err = fi.GetString("ImageDescription")
	if err != nil {
		klog.V(2).Infof("unable to get description for %s: %v", path, err)
	}

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return m, nil
	}
	m.Taken, err = time.Parse(exifDate, ds)
	if err != nil {
		return m, fmt.Errorf("parse time %q: %w", ds, err)
	}
	return m, nil
}

// suggest proposes values for the blank time and highlight fields of p.
func suggest(p *huace.Photo, m metadata) []Suggestion {
	ss := []Suggestion{}
	if p.Time == "" && !m.Taken.IsZero() {
		ss = append(ss, Suggestion{Photo: p, Field: huace.FieldTime, Value: m.Taken.Format("2006-01-02")})
	}
	if p.Highlight == "" {
		if h := strings.TrimSpace(firstNonEmpty(m.Headline, m.Caption)); h != "" {
			ss = append(ss, Suggestion{Photo: p, Field: huace.FieldHighlight, Value: h})
		}
	}
	return ss
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// suggestAll reads embedded metadata for photos with blank captions.
func suggestAll(c *huace.Config, ps []*huace.Photo) ([]Suggestion, error) {
	want := []*huace.Photo{}
	for _, p := range ps {
		if p.Time == "" || p.Highlight == "" {
			want = append(want, p)
		}
	}
	if len(want) == 0 {
		return nil, nil
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	defer func() {
		if err := et.Close(); err != nil {
			klog.Errorf("failed to close exiftool: %v", err)
		}
	}()

	found := []Suggestion{}
	for _, p := range want {
		path := localPath(c, p.Image)
		m, err := readMetadata(path, et)
		if err != nil {
			klog.Warningf("metadata for %s: %v", path, err)
			continue
		}
		found = append(found, suggest(p, m)...)
	}
	return found, nil
}
