// audit checks a gallery's CSV manifest against the photos on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/tstromberg/huace/pkg/audit"
	"github.com/tstromberg/huace/pkg/huace"
)

var (
	siteDir    = flag.String("site", ".", "Location of the site directory")
	csvPath    = flag.String("csv", "", "Path or URL of the CSV manifest, relative to the site directory")
	photosRoot = flag.String("photos", "", "Root path photos are served from")
	workers    = flag.Int("workers", 4, "images to decode concurrently")
	quick      = flag.Bool("quick", false, "only check that images exist, don't decode them")
	orphans    = flag.Bool("orphans", true, "list image files that no photo refers to")
	exif       = flag.Bool("exif", false, "suggest blank times and highlights from embedded metadata (requires exiftool)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := huace.LoadConfig(filepath.Join(*siteDir, huace.DefaultConfigFile))
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if err := c.Merge(huace.Config{SiteDir: *siteDir, CSVPath: *csvPath, PhotoRoot: *photosRoot}); err != nil {
		klog.Exitf("config: %v", err)
	}

	ctx := context.Background()
	ps, err := huace.Load(ctx, c)
	if err != nil {
		klog.Exitf("unable to load manifest: %v", err)
	}

	r, err := audit.Run(ctx, c, ps, audit.Options{Workers: *workers, SkipDecode: *quick, SkipOrphans: !*orphans, Exif: *exif})
	if err != nil {
		klog.Exitf("audit failed: %v", err)
	}

	for _, p := range r.Missing {
		fmt.Printf("missing\t%s\t%s/%s\n", p.Image, p.Series, p.ID)
	}
	for _, b := range r.Broken {
		fmt.Printf("broken\t%s\t%v\n", b.Photo.Image, b.Err)
	}
	for _, d := range r.Duplicates {
		fmt.Printf("duplicate\t%s\n", d)
	}
	for _, o := range r.Orphans {
		fmt.Printf("orphan\t%s\n", o)
	}

	for _, s := range r.Suggestions {
		fmt.Printf("suggest\t%s/%s\t%s\t%s\n", s.Photo.Series, s.Photo.ID, s.Field, s.Value)
	}

	klog.Infof("checked %d photos: %d missing, %d broken, %d duplicates, %d orphans",
		r.Checked, len(r.Missing), len(r.Broken), len(r.Duplicates), len(r.Orphans))

	if !r.OK() {
		os.Exit(1)
	}
}
