package huace

import (
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

var (
	idColumns     = []string{"photo_id", "id", "photo", "photoId"}
	seriesColumns = []string{"series", "series_slug", "album"}

	fileExt    = regexp.MustCompile(`\.[a-zA-Z0-9]+$`)
	defaultExt = ".jpg"
)

// Photo is a normalized manifest entry.
type Photo struct {
	ID        string
	Series    string
	Time      string
	Place     string
	Highlight string
	Source    string
	Image     string
}

// Field names a free-text photo attribute.
type Field string

const (
	FieldTime      Field = "time"
	FieldPlace     Field = "place"
	FieldHighlight Field = "highlight"
	FieldSource    Field = "source"
)

// Value returns the photo's value for f.
func (p *Photo) Value(f Field) string {
	switch f {
	case FieldTime:
		return p.Time
	case FieldPlace:
		return p.Place
	case FieldHighlight:
		return p.Highlight
	case FieldSource:
		return p.Source
	}
	return ""
}

// Normalize converts rows into photos, preserving order and dropping rows
// without an identifier.
func Normalize(c *Config, rows []RawRow) []*Photo {
	ps := make([]*Photo, 0, len(rows))
	for i, r := range rows {
		p, ok := NewPhoto(c, r)
		if !ok {
			klog.V(1).Infof("row %d has no photo id, skipping: %v", i+2, r)
			continue
		}
		ps = append(ps, p)
	}
	return ps
}

// NewPhoto builds a Photo from a row. It reports false if the row has no id.
func NewPhoto(c *Config, r RawRow) (*Photo, bool) {
	id := r.First(idColumns...)
	if id == "" {
		return nil, false
	}

	series := SeriesFor(r, id, c.DefaultSeries)
	return &Photo{
		ID:        id,
		Series:    series,
		Time:      strings.TrimSpace(r["time"]),
		Place:     strings.TrimSpace(r["place"]),
		Highlight: strings.TrimSpace(r["highlight"]),
		Source:    strings.TrimSpace(r["source"]),
		Image:     ImagePath(c.PhotoRoot, series, id),
	}, true
}

// SeriesFor resolves the series of a row: an explicit column wins, then the
// id's leading path segment, then def.
func SeriesFor(r RawRow, id string, def string) string {
	if s := r.First(seriesColumns...); s != "" {
		return s
	}
	if prefix, _, ok := strings.Cut(id, "/"); ok {
		return prefix
	}
	return def
}

// ImagePath derives the image location for a photo id.
func ImagePath(root string, series string, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	name := id
	if !fileExt.MatchString(name) {
		name += defaultExt
	}

	if strings.Contains(id, "/") {
		return JoinPath(root, name)
	}
	return JoinPath(root, series, name)
}

// JoinPath joins URL-ish path segments with single slashes. Empty segments are
// dropped; the first keeps any leading slash.
func JoinPath(parts ...string) string {
	out := []string{}
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(out) == 0 {
			out = append(out, strings.TrimRight(p, "/"))
			continue
		}
		out = append(out, strings.Trim(p, "/"))
	}
	return strings.Join(out, "/")
}
