// Package audit checks a gallery manifest against the photos on disk.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/karrick/godirwalk"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/huace/pkg/huace"
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Broken is a referenced image that exists but cannot be decoded.
type Broken struct {
	Photo *huace.Photo
	Err   error
}

// Report is the outcome of an audit.
type Report struct {
	// Checked is the number of photos in the manifest.
	Checked int
	// Missing photos would render the fallback image.
	Missing []*huace.Photo
	Broken  []Broken
	// Orphans are image files under the photo root that no photo refers to.
	Orphans []string
	// Duplicates are series/id pairs listed more than once.
	Duplicates []string
	// Suggestions fill blank fields from embedded image metadata.
	Suggestions []Suggestion
}

// OK reports whether every photo in the manifest can be displayed.
func (r *Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Broken) == 0
}

// Options tune an audit.
type Options struct {
	// Workers bounds concurrent image decodes.
	Workers int
	// SkipDecode only checks that images exist.
	SkipDecode bool
	// SkipOrphans does not walk the photo root for unreferenced files.
	SkipOrphans bool
	// Exif reads embedded metadata with exiftool to suggest blank fields.
	Exif bool
}

// Run audits photos against the site directory in c.
func Run(ctx context.Context, c *huace.Config, ps []*huace.Photo, o Options) (*Report, error) {
	if o.Workers <= 0 {
		o.Workers = 4
	}

	r := &Report{Checked: len(ps), Duplicates: duplicates(ps)}
	referenced := map[string]bool{}
	present := []*huace.Photo{}

	for _, p := range ps {
		path := localPath(c, p.Image)
		referenced[path] = true

		if _, err := os.Stat(path); err != nil {
			klog.V(1).Infof("missing %s: %v", path, err)
			r.Missing = append(r.Missing, p)
			continue
		}
		present = append(present, p)
	}

	if !o.SkipDecode {
		broken, err := decodeAll(ctx, c, present, o.Workers)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		r.Broken = broken
	}

	if o.Exif {
		ss, err := suggestAll(c, present)
		if err != nil {
			return nil, fmt.Errorf("suggest: %w", err)
		}
		r.Suggestions = ss
	}

	if o.SkipOrphans {
		return r, nil
	}

	orphans, err := findOrphans(filepath.Join(c.SiteDir, filepath.FromSlash(c.PhotoRoot)), referenced)
	if err != nil {
		return nil, fmt.Errorf("find orphans: %w", err)
	}
	r.Orphans = orphans
	return r, nil
}

func localPath(c *huace.Config, image string) string {
	if filepath.IsAbs(image) {
		return filepath.Clean(image)
	}
	return filepath.Join(c.SiteDir, filepath.FromSlash(image))
}

func decodeAll(ctx context.Context, c *huace.Config, ps []*huace.Photo, workers int) ([]Broken, error) {
	var (
		mu     sync.Mutex
		broken []Broken
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range ps {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := localPath(c, p.Image)
			if err := decode(path); err != nil {
				klog.Warningf("unable to decode %s: %v", path, err)
				mu.Lock()
				broken = append(broken, Broken{Photo: p, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(broken, func(a, b Broken) int {
		return strings.Compare(a.Photo.Image, b.Photo.Image)
	})
	return broken, nil
}

// decode reads the full image; a header-only check passes truncated files.
func decode(path string) error {
	img, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("imgio.Open: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return fmt.Errorf("empty image: %v", img.Bounds())
	}
	return nil
}

func findOrphans(root string, referenced map[string]bool) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		klog.Warningf("photo root %s: %v", root, err)
		return nil, nil
	}

	found := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() {
				return nil
			}
			if !slices.Contains(imageExts, strings.ToLower(filepath.Ext(path))) {
				return nil
			}
			if !referenced[filepath.Clean(path)] {
				klog.V(1).Infof("orphan: %s", path)
				found = append(found, path)
			}
			return nil
		},
	})
	return found, err
}

func duplicates(ps []*huace.Photo) []string {
	seen := map[string]int{}
	dups := []string{}
	for _, p := range ps {
		key := p.Series + "/" + p.ID
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups
}
