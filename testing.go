package blockload

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/net/html"
)

// StaticFetcher serves fragments from an in-memory map keyed by fetch
// path. Missing paths are unavailable. Every call is recorded.
//
//	f := blockload.NewStaticFetcher(map[string]string{
//	    "/nav.plain.html": `<div class="header">...</div>`,
//	})
//	eng, _ := blockload.New(cfg, blockload.WithFetcher(f))
type StaticFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

// NewStaticFetcher creates a fetcher over pages.
func NewStaticFetcher(pages map[string]string) *StaticFetcher {
	if pages == nil {
		pages = make(map[string]string)
	}
	return &StaticFetcher{pages: pages}
}

// Set adds or replaces a page.
func (f *StaticFetcher) Set(path, markup string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = markup
}

// Fetch implements Fetcher.
func (f *StaticFetcher) Fetch(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	markup, ok := f.pages[path]
	if !ok {
		return "", fmt.Errorf("%w: %s: HTTP 404", ErrFragmentUnavailable, path)
	}
	return markup, nil
}

// Calls returns the fetched paths in order.
func (f *StaticFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times path was fetched.
func (f *StaticFetcher) CallCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

// CountingLoader wraps a Loader and counts loads per path.
type CountingLoader struct {
	Loader Loader

	mu    sync.Mutex
	loads map[string]int
}

// NewCountingLoader wraps l.
func NewCountingLoader(l Loader) *CountingLoader {
	return &CountingLoader{Loader: l, loads: make(map[string]int)}
}

// Load implements Loader.
func (c *CountingLoader) Load(ctx context.Context, path string) (Behavior, error) {
	c.mu.Lock()
	c.loads[path]++
	c.mu.Unlock()
	return c.Loader.Load(ctx, path)
}

// Loads returns how many times path was loaded.
func (c *CountingLoader) Loads(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads[path]
}

// RecordingBehavior records the elements it is initialized on and
// optionally fails or panics.
type RecordingBehavior struct {
	Err   error
	Panic any

	mu    sync.Mutex
	calls []*html.Node
}

// Initialize implements Behavior.
func (b *RecordingBehavior) Initialize(el *html.Node, _ Helpers) error {
	b.mu.Lock()
	b.calls = append(b.calls, el)
	b.mu.Unlock()
	if b.Panic != nil {
		panic(b.Panic)
	}
	return b.Err
}

// Calls returns the elements Initialize ran on, in order.
func (b *RecordingBehavior) Calls() []*html.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*html.Node(nil), b.calls...)
}

// CallCount returns how many times Initialize ran.
func (b *RecordingBehavior) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}
