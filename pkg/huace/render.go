package huace

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

//go:embed assets/default
var defaultAssets embed.FS

var defaultThemeRoot = "assets/default"

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Theme is a parsed set of page templates plus a stylesheet.
type Theme struct {
	// Dir is where the theme was loaded from; empty for the built-in theme.
	Dir string

	tmpl  *template.Template
	style template.CSS
}

// LoadTheme parses the theme in dir, or the built-in theme if dir is empty.
func LoadTheme(dir string) (*Theme, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(defaultAssets, defaultThemeRoot)
		if err != nil {
			return nil, fmt.Errorf("sub: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	tmpl, err := template.New("theme").Funcs(tmplFunctions()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	for _, p := range []Page{PageIndex, PageSeries, PagePhoto} {
		if tmpl.Lookup(string(p)) == nil {
			return nil, fmt.Errorf("theme %q does not define %q", dir, string(p))
		}
	}

	style, err := fs.ReadFile(fsys, "style.css")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read style: %w", err)
	}

	klog.V(1).Infof("loaded theme %q", dir)
	return &Theme{Dir: dir, tmpl: tmpl, style: template.CSS(style)}, nil
}

// Render writes the page for d.
func (t *Theme) Render(w io.Writer, c *Config, d *Document) error {
	data := struct {
		Collection  string
		Description string
		Title       string
		Doc         *Document
		Style       template.CSS
	}{
		Collection:  c.Collection,
		Description: c.Description,
		Title:       pageTitle(c, d),
		Doc:         d,
		Style:       t.style,
	}

	var tpl bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&tpl, string(d.Page), data); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	_, err := w.Write(tpl.Bytes())
	return err
}

// EjectTheme copies the built-in theme to dst so it can be customized.
func EjectTheme(dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s already exists", dst)
	}

	klog.Infof("copying built-in theme to %s", dst)
	opts := copy.Options{
		FS:                defaultAssets,
		PermissionControl: copy.AddPermission(0o200),
	}
	if err := copy.Copy(defaultThemeRoot, dst, opts); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

func pageTitle(c *Config, d *Document) string {
	switch {
	case d.Series != nil:
		return d.Series.Title
	case d.Photo != nil && d.Photo.Title != "":
		return d.Photo.Title
	case d.Photo != nil:
		return d.Photo.ID
	}
	return c.Collection
}

// tmplFunctions are functions available to our templates.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"Rich": func(s string) template.HTML {
			return template.HTML(richPolicy.Sanitize(s))
		},
		"Plain": func(s string) string {
			return html.UnescapeString(plainPolicy.Sanitize(s))
		},
		"Fallback": func() string {
			return FallbackImage
		},
		"Img": func(src string, alt string) map[string]string {
			return map[string]string{"Src": src, "Alt": alt}
		},
		"Odd": func(i int) bool {
			return i%2 == 1
		},
	}
}
