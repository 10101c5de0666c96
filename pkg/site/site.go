// Package site serves gallery pages over HTTP.
package site

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"

	"github.com/tstromberg/huace/pkg/huace"
)

// Server serves the gallery of one site directory.
type Server struct {
	c     *huace.Config
	theme atomic.Pointer[huace.Theme]
}

// New creates a new server.
func New(c *huace.Config) (*Server, error) {
	t, err := huace.LoadTheme(c.ThemeDir)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	s := &Server{c: c}
	s.theme.Store(t)
	return s, nil
}

// Routes returns the HTTP handler for the site.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", s.PageHandler(huace.PageIndex))
	for _, p := range []huace.Page{huace.PageIndex, huace.PageSeries, huace.PagePhoto} {
		r.Get("/"+p.Document(), s.PageHandler(p))
	}

	// photos, the manifest and anything else in the site directory
	r.Handle("/*", http.FileServer(http.Dir(s.c.SiteDir)))
	return r
}

// PageHandler renders page, reading the manifest afresh on every request.
func (s *Server) PageHandler(page huace.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := huace.Build(r.Context(), s.c, page, r.URL.Query())

		var buf bytes.Buffer
		if err := s.theme.Load().Render(&buf, s.c, d); err != nil {
			klog.Errorf("render %s: %v", page, err)
			http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(d.Status)
		_, _ = w.Write(buf.Bytes())
	}
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			klog.Warningf("shutdown: %v", err)
		}
	}()

	klog.Infof("Listening on %s, serving %s ...", addr, s.c.SiteDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Reload re-parses the theme. The previous theme stays active on failure.
func (s *Server) Reload() error {
	t, err := huace.LoadTheme(s.c.ThemeDir)
	if err != nil {
		return err
	}
	s.theme.Store(t)
	klog.Infof("reloaded theme %q", s.c.ThemeDir)
	return nil
}

// Watch reloads the theme whenever its directory changes, until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	if s.c.ThemeDir == "" {
		klog.Infof("built-in theme in use, nothing to watch")
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.c.ThemeDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.c.ThemeDir, err)
	}
	klog.Infof("watching %s for theme changes ...", s.c.ThemeDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if err := s.Reload(); err != nil {
					klog.Errorf("reload failed: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
