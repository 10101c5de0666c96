package huace

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Page is the view a page document declares.
type Page string

const (
	PageIndex  Page = "index"
	PageSeries Page = "series"
	PagePhoto  Page = "photo"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageIndex, PageSeries, PagePhoto:
		return p, nil
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Document returns the file name a page is served as.
func (p Page) Document() string {
	return string(p) + ".html"
}

// CaptionPolicy decides how blank text fields are presented.
type CaptionPolicy string

const (
	// CaptionOmit leaves blank fields out of captions and hides empty detail rows.
	CaptionOmit CaptionPolicy = "omit"
	// CaptionPlaceholder shows every detail row, filling blanks with Pending.
	CaptionPlaceholder CaptionPolicy = "placeholder"
)

// Validate reports whether the policy is known.
func (cp CaptionPolicy) Validate() error {
	switch cp {
	case CaptionOmit, CaptionPlaceholder:
		return nil
	}
	return fmt.Errorf("unknown caption policy %q", string(cp))
}

const (
	// Pending stands in for blank fields under CaptionPlaceholder.
	Pending = "待补充"

	captionSep     = "｜"
	seriesMetaSep  = " · "
	pendingSeries  = "内容整理中"
	indexDelayMs   = 80
	seriesDelayMs  = 30
	disabledHref   = "#"
	seriesQueryKey = "s"
	photoQueryKey  = "id"
)

var (
	// ErrPhotoNotFound is reported when a photo view names an unknown photo.
	ErrPhotoNotFound = errors.New("未找到该照片，请检查链接或 CSV 数据。")

	detailFields = []struct {
		Field Field
		Label string
	}{
		{FieldTime, "时间"},
		{FieldPlace, "地点"},
		{FieldHighlight, "亮点"},
		{FieldSource, "来源"},
	}
)

// Card links to a series or photo.
type Card struct {
	Href    string
	Title   string
	Image   string
	Alt     string
	Caption string
	Meta    []string
	DelayMs int
}

// IndexView lists one card per series.
type IndexView struct {
	Cards       []Card
	Empty       bool
	PrimaryHref string
}

// SeriesView lists the photos of one series.
type SeriesView struct {
	Series string
	Title  string
	Meta   string
	Cards  []Card
	Empty  bool
}

// Detail is a labelled row on the photo view.
type Detail struct {
	Field   Field
	Label   string
	Value   string
	Pending bool
}

// Link is a navigation link that may be disabled.
type Link struct {
	Href     string
	Disabled bool
}

// PhotoView shows a single photo.
type PhotoView struct {
	Series  string
	ID      string
	Image   string
	Alt     string
	Title   string
	Details []Detail
	Back    string
	Prev    Link
	Next    Link
	Index   int
	Total   int
}

// Document is the view model for one page load.
type Document struct {
	Page   Page
	Index  *IndexView
	Series *SeriesView
	Photo  *PhotoView
	// Err is shown in the page's error region.
	Err string
	// Status is the HTTP status the document is served with.
	Status int
}

// Compose builds the document for page from an already loaded photo list.
func Compose(c *Config, page Page, ps []*Photo, q url.Values) *Document {
	d := &Document{Page: page, Status: http.StatusOK}
	switch page {
	case PageIndex:
		d.Index = BuildIndex(c, ps)
	case PageSeries:
		d.Series = BuildSeries(c, ps, q)
	case PagePhoto:
		v, err := BuildPhoto(c, ps, q)
		if err != nil {
			d.Err = err.Error()
			d.Status = http.StatusNotFound
			break
		}
		d.Photo = v
	default:
		d.Err = fmt.Sprintf("unknown page %q", string(page))
		d.Status = http.StatusNotFound
	}
	return d
}

// BuildIndex builds one card per series.
func BuildIndex(c *Config, ps []*Photo) *IndexView {
	v := &IndexView{}
	gs := GroupBySeries(c, ps)
	if len(gs) == 0 {
		v.Empty = true
		return v
	}

	for i, g := range gs {
		cover := g.Photos[0]
		meta := []string{fmt.Sprintf("共 %d 张", len(g.Photos))}
		meta = append(meta, hints(g.Photos)...)

		v.Cards = append(v.Cards, Card{
			Href:    SeriesHref(g.Series),
			Title:   g.Series,
			Image:   cover.Image,
			Alt:     g.Series,
			Meta:    meta,
			DelayMs: i * indexDelayMs,
		})
	}
	v.PrimaryHref = v.Cards[0].Href
	return v
}

// BuildSeries builds the grid for the series named by the "s" parameter.
func BuildSeries(c *Config, ps []*Photo, q url.Values) *SeriesView {
	series := queryValue(q, seriesQueryKey, c.DefaultSeries)
	v := &SeriesView{Series: series}

	in := FilterSeries(ps, series)
	if len(in) == 0 {
		v.Empty = true
		v.Title = pendingSeries
		return v
	}

	v.Title = series
	meta := []string{fmt.Sprintf("共 %d 张", len(in))}
	meta = append(meta, hints(in)...)
	v.Meta = strings.Join(meta, seriesMetaSep)

	for i, p := range in {
		caption := Caption(c.Captions, p)
		v.Cards = append(v.Cards, Card{
			Href:    PhotoHref(series, p.ID),
			Title:   p.ID,
			Image:   p.Image,
			Alt:     altText(caption, p),
			Caption: caption,
			DelayMs: i * seriesDelayMs,
		})
	}
	return v
}

// BuildPhoto builds the detail view for the photo named by "s" and "id".
func BuildPhoto(c *Config, ps []*Photo, q url.Values) (*PhotoView, error) {
	series := queryValue(q, seriesQueryKey, c.DefaultSeries)
	id := queryValue(q, photoQueryKey, "")

	in := InSeries(ps, series)
	idx := -1
	for i, p := range in {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrPhotoNotFound
	}

	p := in[idx]
	caption := Caption(c.Captions, p)
	v := &PhotoView{
		Series:  series,
		ID:      p.ID,
		Image:   p.Image,
		Alt:     altText(caption, p),
		Title:   caption,
		Details: details(c.Captions, p),
		Back:    SeriesHref(series),
		Prev:    Link{Href: disabledHref, Disabled: true},
		Next:    Link{Href: disabledHref, Disabled: true},
		Index:   idx + 1,
		Total:   len(in),
	}

	if idx > 0 {
		v.Prev = Link{Href: PhotoHref(series, in[idx-1].ID)}
	}
	if idx < len(in)-1 {
		v.Next = Link{Href: PhotoHref(series, in[idx+1].ID)}
	}
	return v, nil
}

// Caption composes the time, place and highlight of a photo.
func Caption(cp CaptionPolicy, p *Photo) string {
	s := joinNonEmpty(captionSep, p.Time, p.Place, p.Highlight)
	if s == "" && cp == CaptionPlaceholder {
		return Pending
	}
	return s
}

// SeriesHref links to the series view.
func SeriesHref(series string) string {
	return PageSeries.Document() + "?" + seriesQueryKey + "=" + queryEscape(series)
}

// PhotoHref links to the photo view.
func PhotoHref(series string, id string) string {
	return PagePhoto.Document() + "?" + seriesQueryKey + "=" + queryEscape(series) + "&" + photoQueryKey + "=" + queryEscape(id)
}

// queryEscape escapes s as a query value, encoding spaces as %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func details(cp CaptionPolicy, p *Photo) []Detail {
	ds := []Detail{}
	for _, f := range detailFields {
		val := strings.TrimSpace(p.Value(f.Field))
		if val == "" {
			if cp == CaptionOmit {
				continue
			}
			ds = append(ds, Detail{Field: f.Field, Label: f.Label, Value: Pending, Pending: true})
			continue
		}
		ds = append(ds, Detail{Field: f.Field, Label: f.Label, Value: val})
	}
	return ds
}

// hints returns the time and place hints shown for a list of photos.
func hints(ps []*Photo) []string {
	hs := []string{}
	if t := PickFirst(ps, FieldTime); t != "" {
		hs = append(hs, "时间 "+t)
	}
	if pl := PickFirst(ps, FieldPlace); pl != "" {
		hs = append(hs, "地点 "+pl)
	}
	return hs
}

func altText(caption string, p *Photo) string {
	if caption == "" || caption == Pending {
		return p.ID
	}
	return caption
}

func queryValue(q url.Values, key string, def string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return def
}

func joinNonEmpty(sep string, parts ...string) string {
	out := []string{}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
