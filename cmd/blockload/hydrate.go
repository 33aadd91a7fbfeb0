package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/lib/dom"
)

// hydrateOptions holds flags for the hydrate command.
type hydrateOptions struct {
	*rootOptions
	Base           string
	FragmentsDir   string
	Origin         string
	Scroll         float64
	ViewportWidth  float64
	ViewportHeight float64
	BlockHeight    float64
	Out            string
	Trace          bool
	TraceKey       string
	Jobs           int
}

func newHydrateCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &hydrateOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hydrate <page.html>...",
		Short: "Hydrate pages and write the result",
		Long: `Hydrate one or more HTML pages.

Each page gets its block stylesheets and module scripts attached, its
fragments inlined from --fragments-dir, and canonical links rewritten to
--origin. Lazy blocks load immediately unless --scroll is given, in which
case only blocks near a simulated viewport at that offset are activated.

Examples:
  blockload hydrate -c blocks.yaml --base ./site --out ./dist site/*.html
  blockload hydrate -c blocks.yaml --scroll 0 --trace --trace-key secret index.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHydrate(cmd.Context(), opts, cmd.Flags().Changed("scroll"), args)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", ".", "directory block scripts are resolved against")
	cmd.Flags().StringVar(&opts.FragmentsDir, "fragments-dir", "", "directory fragments are read from (defaults to --base)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "runtime origin canonical links are rewritten to")
	cmd.Flags().Float64Var(&opts.Scroll, "scroll", 0, "simulate a viewport scrolled to this offset")
	cmd.Flags().Float64Var(&opts.ViewportWidth, "viewport-width", 1280, "simulated viewport width")
	cmd.Flags().Float64Var(&opts.ViewportHeight, "viewport-height", 900, "simulated viewport height")
	cmd.Flags().Float64Var(&opts.BlockHeight, "block-height", 400, "height of each element in the simulated layout")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "dist", "output directory")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "write a signed activation trace next to each page")
	cmd.Flags().StringVar(&opts.TraceKey, "trace-key", os.Getenv("BLOCKLOAD_TRACE_KEY"), "key used to sign traces")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "pages hydrated concurrently")

	return cmd
}

func runHydrate(ctx context.Context, opts *hydrateOptions, geometry bool, pages []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Trace && opts.TraceKey == "" {
		return fmt.Errorf("--trace requires --trace-key or BLOCKLOAD_TRACE_KEY")
	}

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

	fragmentsDir := opts.FragmentsDir
	if fragmentsDir == "" {
		fragmentsDir = opts.Base
	}

	h := &hydrator{
		cfg:            cfg,
		assets:         os.DirFS(opts.Base),
		fragments:      blockload.FSFetcher{FS: os.DirFS(fragmentsDir)},
		logger:         log,
		geometry:       geometry,
		scroll:         opts.Scroll,
		viewportWidth:  opts.ViewportWidth,
		viewportHeight: opts.ViewportHeight,
		blockHeight:    opts.BlockHeight,
	}

	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for _, name := range pages {
		g.Go(func() error {
			return hydrateFile(ctx, h, opts, origin, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("hydrated pages", zap.Int("count", len(pages)), zap.String("out", opts.Out))
	return nil
}

func hydrateFile(ctx context.Context, h *hydrator, opts *hydrateOptions, origin *url.URL, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := h.hydrate(ctx, name, f, origin)
	if err != nil {
		return err
	}

	target := filepath.Join(opts.Out, filepath.Base(name))
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := dom.Render(out, p.doc); err != nil {
		out.Close()
		return fmt.Errorf("%s: render: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	h.logger.Debug("wrote page",
		zap.String("page", name),
		zap.String("template", p.template),
		zap.Int("activated", blockload.Count(p.trace, blockload.EventActivate)),
	)

	if !opts.Trace {
		return nil
	}
	encoded, err := blockload.EncodeTrace([]byte(opts.TraceKey), name, p.trace)
	if err != nil {
		return err
	}
	tracePath := strings.TrimSuffix(target, filepath.Ext(target)) + ".trace"
	return os.WriteFile(tracePath, []byte(encoded+"\n"), 0o644)
}
