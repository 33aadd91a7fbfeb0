package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/blockload"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	*rootOptions
	Root   string
	Addr   string
	Origin string
	Watch  bool
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a site, hydrating pages per request",
		Long: `Serve the files under --root. HTML pages are hydrated on every
request; fragments (*.plain.html) and other assets are served as they are.
Canonical links are rewritten to --origin, or to the origin of the request
when --origin is not set.

Examples:
  blockload serve -c blocks.yaml --root ./site
  blockload serve -c blocks.yaml --root ./site --addr :8443 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", ".", "site directory")
	cmd.Flags().StringVar(&opts.Addr, "addr", ":3000", "listen address")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "runtime origin (defaults to the request origin)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "reload the configuration when it changes")

	return cmd
}

// site serves one directory. The configuration is swapped atomically on
// reload; requests in flight keep the config they started with.
type site struct {
	root   string
	origin *url.URL
	logger *zap.Logger
	cfg    atomic.Pointer[blockload.Config]
	files  http.Handler
}

func newSite(root string, cfg *blockload.Config, origin *url.URL, logger *zap.Logger) *site {
	s := &site{
		root:   root,
		origin: origin,
		logger: logger,
		files:  http.FileServer(http.Dir(root)),
	}
	s.cfg.Store(cfg)
	return s
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(name, "/") {
		name += "index.html"
	}
	if !strings.HasSuffix(name, ".html") || strings.HasSuffix(name, blockload.PlainSuffix) {
		s.files.ServeHTTP(w, r)
		return
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	h := &hydrator{
		cfg:       s.cfg.Load(),
		assets:    os.DirFS(s.root),
		fragments: blockload.FSFetcher{FS: os.DirFS(s.root)},
		logger:    s.logger,
	}
	p, err := h.hydrate(r.Context(), name, f, s.requestOrigin(r))
	if err != nil {
		s.logger.Error("hydrate failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "hydration failed", http.StatusInternalServerError)
		return
	}

	if err := blockload.Render(w, r, blockload.RenderDocument(p.doc)); err != nil {
		s.logger.Warn("render failed", zap.String("page", name), zap.Error(err))
	}
}

func (s *site) requestOrigin(r *http.Request) *url.URL {
	if s.origin != nil {
		return s.origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host}
}

func (s *site) reload(configPath string) error {
	cfg, err := blockload.LoadConfig(configPath)
	if err != nil {
		return err
	}
	s.cfg.Store(cfg)
	return nil
}

func runServe(ctx context.Context, opts *serveOptions) error {
	log, err := opts.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	var origin *url.URL
	if opts.Origin != "" {
		if origin, err = url.Parse(opts.Origin); err != nil {
			return fmt.Errorf("invalid --origin: %w", err)
		}
	}

	s := newSite(opts.Root, cfg, origin, log.Named("serve"))
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving", zap.String("addr", opts.Addr), zap.String("root", opts.Root))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if opts.Watch && opts.Config != "" {
		g.Go(func() error {
			return watchConfig(ctx, opts.Config, s, log)
		})
	}

	return g.Wait()
}

// watchConfig reloads the configuration whenever its file is written. The
// parent directory is watched so editors that replace the file on save
// are picked up too.
func watchConfig(ctx context.Context, configPath string, s *site, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.reload(abs); err != nil {
				log.Warn("config reload failed, keeping previous", zap.Error(err))
				continue
			}
			log.Info("config reloaded", zap.String("path", abs))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}
