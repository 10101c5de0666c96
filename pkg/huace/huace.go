// Package huace renders a photo gallery from a CSV manifest.
package huace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

const (
	DefaultCSVPath       = "data/图片信息.csv"
	DefaultPhotoRoot     = "."
	DefaultSeries        = "默认系列"
	DefaultCollection    = "照片档案"
	DefaultConfigFile    = "site.yaml"
	defaultCaptionPolicy = CaptionOmit
)

// Config holds configuration for a gallery site.
type Config struct {
	// SiteDir is the directory relative paths are resolved against.
	SiteDir string `yaml:"-"`

	CSVPath       string        `yaml:"csv"`
	PhotoRoot     string        `yaml:"photos_root"`
	DefaultSeries string        `yaml:"default_series"`
	Collection    string        `yaml:"title"`
	Description   string        `yaml:"description"`
	Captions      CaptionPolicy `yaml:"captions"`
	ThemeDir      string        `yaml:"theme"`
}

// LoadConfig reads a YAML site configuration. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	c := &Config{SiteDir: filepath.Dir(path)}

	bs, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		klog.V(1).Infof("no config at %s, using defaults", path)
		return c, c.ApplyDefaults()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := c.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyDefaults fills unset fields and validates the caption policy.
func (c *Config) ApplyDefaults() error {
	if strings.TrimSpace(c.CSVPath) == "" {
		c.CSVPath = DefaultCSVPath
	}
	if strings.TrimSpace(c.PhotoRoot) == "" {
		c.PhotoRoot = DefaultPhotoRoot
	}
	if strings.TrimSpace(c.DefaultSeries) == "" {
		c.DefaultSeries = DefaultSeries
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Captions == "" {
		c.Captions = defaultCaptionPolicy
	}
	if c.SiteDir == "" {
		c.SiteDir = "."
	}
	return c.Captions.Validate()
}

// sitePath resolves p against the site directory unless it is absolute.
func (c *Config) sitePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SiteDir, filepath.FromSlash(p))
}

// Merge overrides c with the non-empty fields of o, typically from flags.
func (c *Config) Merge(o Config) error {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&c.SiteDir, o.SiteDir},
		{&c.CSVPath, o.CSVPath},
		{&c.PhotoRoot, o.PhotoRoot},
		{&c.DefaultSeries, o.DefaultSeries},
		{&c.Collection, o.Collection},
		{&c.Description, o.Description},
		{&c.ThemeDir, o.ThemeDir},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if o.Captions != "" {
		c.Captions = o.Captions
	}
	return c.ApplyDefaults()
}
