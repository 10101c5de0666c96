// huace serves a photo gallery described by a CSV manifest.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/tstromberg/huace/pkg/huace"
	"github.com/tstromberg/huace/pkg/site"
)

var (
	siteDir       = flag.String("site", "", "Location of the site directory (default: directory of --config, or .)")
	configPath    = flag.String("config", "", "Path to site configuration (default: <site>/site.yaml)")
	csvPath       = flag.String("csv", "", "Path or URL of the CSV manifest, relative to the site directory")
	photosRoot    = flag.String("photos", "", "Root path photos are served from")
	defaultSeries = flag.String("default-series", "", "Series for photos that do not name one")
	title         = flag.String("title", "", "Title of photo collection")
	description   = flag.String("description", "", "Description of photo collection")
	captions      = flag.String("captions", "", "Caption policy for blank fields: omit or placeholder")
	themeDir      = flag.String("theme", "", "Directory of a custom theme (default: built-in)")
	addr          = flag.String("addr", "localhost:12800", "host:port to bind to")
	watchFlag     = flag.Bool("watch", false, "watch the theme directory for changes and reload")
	ejectDir      = flag.String("eject", "", "copy the built-in theme to this directory and exit")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *ejectDir != "" {
		if err := huace.EjectTheme(*ejectDir); err != nil {
			klog.Exitf("eject failed: %v", err)
		}
		klog.Infof("theme written to %s; start with --theme=%s", *ejectDir, *ejectDir)
		return
	}

	c, err := loadConfig()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	s, err := site.New(c)
	if err != nil {
		klog.Exitf("site: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Watch(ctx); err != nil {
				klog.Errorf("watch failed: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.Serve(ctx, *addr); err != nil {
			klog.Exitf("serve failed: %v", err)
		}
		stop()
	}()

	wg.Wait()
}

func loadConfig() (*huace.Config, error) {
	path := *configPath
	if path == "" {
		dir := *siteDir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, huace.DefaultConfigFile)
	}

	c, err := huace.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	err = c.Merge(huace.Config{
		SiteDir:       *siteDir,
		CSVPath:       *csvPath,
		PhotoRoot:     *photosRoot,
		DefaultSeries: *defaultSeries,
		Collection:    *title,
		Description:   *description,
		Captions:      huace.CaptionPolicy(*captions),
		ThemeDir:      *themeDir,
	})
	return c, err
}
