package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/example/blocks"
	"github.com/pthm/blockload/lib/dom"
)

//go:embed site
var siteFiles embed.FS

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	site, err := fs.Sub(siteFiles, "site")
	if err != nil {
		log.Fatal(err)
	}

	store := NewStore(150 * time.Millisecond)
	logger.Info("catalog loaded", zap.Strings("collections", store.Collections()))

	srv, err := newServer(site, store, logger)
	if err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", srv.handlePage)
	mux.Handle("/", http.FileServer(http.FS(site)))

	addr := ":8080"
	logger.Info("starting server", zap.String("url", "http://localhost"+addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

type server struct {
	site    fs.FS
	cfg     *blockload.Config
	modules *blockload.ModuleTable
	logger  *zap.Logger
}

func newServer(site fs.FS, store *Store, logger *zap.Logger) (*server, error) {
	data, err := fs.ReadFile(site, "blocks.yaml")
	if err != nil {
		return nil, err
	}
	cfg, err := blockload.ParseConfig(data)
	if err != nil {
		return nil, err
	}

	modules := blockload.NewModuleTable()
	blocks.Init(modules, store)

	return &server{site: site, cfg: cfg, modules: modules, logger: logger}, nil
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	f, err := s.site.Open("index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	eng, err := blockload.New(s.cfg,
		blockload.WithLogger(s.logger),
		blockload.WithLoader(s.modules),
		blockload.WithFetcher(blockload.FSFetcher{FS: s.site}),
		blockload.WithOrigin(&url.URL{Scheme: "http", Host: r.Host}),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer eng.Close()

	blockload.ApplyTemplate(doc, s.cfg)
	if err := eng.Hydrate(doc); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := eng.Settle(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}

	blockload.Render(w, r, blockload.RenderDocument(doc))
}
