package blockload

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Behavior is the capability a block's script provides. Initialize runs on
// the engine loop once per activated element, after the element's
// descriptor stylesheet has been attached.
//
// Initialize may mutate the element and its subtree freely. Long-running
// work belongs in Helpers.Async so other activations are not held up.
// A returned error is logged; the element is still marked loaded.
type Behavior interface {
	Initialize(el *html.Node, h Helpers) error
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(el *html.Node, h Helpers) error

// Initialize calls f.
func (f BehaviorFunc) Initialize(el *html.Node, h Helpers) error {
	return f(el, h)
}

// Helpers are the engine primitives available to behaviors. They may only
// be used on the engine loop: inside Initialize or inside a continuation
// returned from an Async task.
type Helpers interface {
	// AddStylesheet appends <link rel="stylesheet" href="..."> to the
	// document head.
	AddStylesheet(href string)

	// RewriteLinks replaces the canonical domain with the runtime domain
	// in every anchor under root.
	RewriteLinks(root *html.Node)

	// Activate runs the engine entry point on root: variant classes are
	// normalized and blocks inside it are activated or observed.
	Activate(root *html.Node)

	// Async runs task off the loop. A non-nil continuation it returns is
	// run on the loop afterwards. The context ends when the engine closes.
	Async(task func(ctx context.Context) func())

	// Logger returns the engine logger scoped to the current block.
	Logger() *zap.Logger
}

// Loader resolves a script path to a behavior. It plays the role of a
// dynamic import and is called at most once per descriptor.
type Loader interface {
	Load(ctx context.Context, path string) (Behavior, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (Behavior, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, path string) (Behavior, error) {
	return f(ctx, path)
}

// Fetcher retrieves fragment markup. Implementations return an error
// wrapping ErrFragmentUnavailable for any unsuccessful response.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}
