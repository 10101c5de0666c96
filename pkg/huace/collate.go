package huace

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Group is the photos of one series, in display order.
type Group struct {
	Series string
	Photos []*Photo
}

// newCollator returns a Simplified Chinese collator that compares digits by
// numeric value and ignores case, accents and width. Collators keep internal
// buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.SimplifiedChinese, collate.Numeric, collate.Loose)
}

// SortPhotos sorts photos by id in natural order.
func SortPhotos(ps []*Photo) {
	col := newCollator()
	slices.SortStableFunc(ps, func(a, b *Photo) int {
		if c := col.CompareString(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// GroupBySeries groups photos by series. Groups keep the order in which
// their series first appears; photos within a group are sorted.
func GroupBySeries(c *Config, ps []*Photo) []*Group {
	byKey := map[string]*Group{}
	gs := []*Group{}
	for _, p := range ps {
		key := p.Series
		if key == "" {
			key = c.DefaultSeries
		}
		g := byKey[key]
		if g == nil {
			g = &Group{Series: key}
			byKey[key] = g
			gs = append(gs, g)
		}
		g.Photos = append(g.Photos, p)
	}

	for _, g := range gs {
		SortPhotos(g.Photos)
	}
	return gs
}

// FilterSeries returns the photos of a series in manifest order.
func FilterSeries(ps []*Photo, series string) []*Photo {
	out := []*Photo{}
	for _, p := range ps {
		if p.Series == series {
			out = append(out, p)
		}
	}
	return out
}

// InSeries returns the photos of a series, sorted.
func InSeries(ps []*Photo, series string) []*Photo {
	out := FilterSeries(ps, series)
	SortPhotos(out)
	return out
}

// PickFirst returns the first non-empty value of f across ps.
func PickFirst(ps []*Photo, f Field) string {
	for _, p := range ps {
		if v := strings.TrimSpace(p.Value(f)); v != "" {
			return v
		}
	}
	return ""
}
