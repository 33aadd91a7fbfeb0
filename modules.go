package blockload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

// ModuleFactory constructs the behavior registered for a script path.
type ModuleFactory func(ctx context.Context) (Behavior, error)

// ModuleTable is the default Loader: a lookup table from script path
// (descriptor location + script name) to behavior, built at startup.
type ModuleTable struct {
	mu        sync.RWMutex
	factories map[string]ModuleFactory
}

// NewModuleTable creates an empty table.
func NewModuleTable() *ModuleTable {
	return &ModuleTable{factories: make(map[string]ModuleFactory)}
}

// Register adds a factory for path.
// Panics if path is already registered.
func (t *ModuleTable) Register(path string, f ModuleFactory) *ModuleTable {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.factories[path]; exists {
		panic(fmt.Sprintf("blockload: module collision for %q", path))
	}
	t.factories[path] = f
	return t
}

// Add registers a ready-made behavior for path.
func (t *ModuleTable) Add(path string, b Behavior) *ModuleTable {
	return t.Register(path, func(context.Context) (Behavior, error) {
		return b, nil
	})
}

// Load implements Loader.
func (t *ModuleTable) Load(ctx context.Context, path string) (Behavior, error) {
	t.mu.RLock()
	f, ok := t.factories[path]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}

	b, err := f(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleFailed, path, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s: factory returned no behavior", ErrModuleFailed, path)
	}
	return b, nil
}

// Paths returns the registered paths, sorted.
func (t *ModuleTable) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.factories))
	for p := range t.factories {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ScriptLoader resolves script paths against a file system of static
// assets. The behavior it yields references the script from the document
// head, leaving initialization to the client. A script missing from FS is
// reported as not found.
type ScriptLoader struct {
	FS fs.FS
}

// Load implements Loader.
func (l ScriptLoader) Load(_ context.Context, p string) (Behavior, error) {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if _, err := fs.Stat(l.FS, name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, p)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleFailed, p, err)
	}
	return &scriptTag{src: p}, nil
}

// scriptTag adds <script type="module"> for its source the first time it
// initializes.
type scriptTag struct {
	src   string
	added bool
}

func (s *scriptTag) Initialize(el *html.Node, h Helpers) error {
	if s.added {
		return nil
	}
	root := el
	for root.Parent != nil {
		root = root.Parent
	}
	head := dom.Head(root)
	if head == nil {
		return fmt.Errorf("no head for script %s", s.src)
	}
	head.AppendChild(dom.NewElement("script",
		html.Attribute{Key: "type", Val: "module"},
		html.Attribute{Key: "src", Val: s.src},
	))
	s.added = true
	return nil
}
