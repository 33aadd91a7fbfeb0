package viewport

import (
	"sync"

	"golang.org/x/net/html"
)

// Layout resolves an element to its document rectangle. It returns false
// when the element has no box.
type Layout func(n *html.Node) (Rect, bool)

// Viewport is a scrollable window over a laid-out document. Observers
// created from it are evaluated on Check and ScrollTo; each evaluation
// delivers the targets whose intersection state changed, and a target's
// first evaluation always delivers.
type Viewport struct {
	mu        sync.Mutex
	width     float64
	height    float64
	scrollX   float64
	scrollY   float64
	layout    Layout
	observers map[*geoObserver]struct{}
}

// New creates a viewport of the given size positioned at the origin.
func New(width, height float64, layout Layout) *Viewport {
	return &Viewport{
		width:     width,
		height:    height,
		layout:    layout,
		observers: make(map[*geoObserver]struct{}),
	}
}

// Factory returns a Factory producing observers bound to v.
func (v *Viewport) Factory() Factory {
	return func(m Margin, cb Callback) Observer {
		return v.NewObserver(m, cb)
	}
}

// NewObserver creates an observer bound to v.
func (v *Viewport) NewObserver(m Margin, cb Callback) Observer {
	o := &geoObserver{
		vp:      v,
		margin:  m,
		cb:      cb,
		targets: make(map[*html.Node]*geoTarget),
	}
	v.mu.Lock()
	v.observers[o] = struct{}{}
	v.mu.Unlock()
	return o
}

// Bounds returns the visible rectangle.
func (v *Viewport) Bounds() Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds()
}

func (v *Viewport) bounds() Rect {
	return Rect{X: v.scrollX, Y: v.scrollY, Width: v.width, Height: v.height}
}

// ScrollTo moves the viewport vertically and evaluates all observers.
func (v *Viewport) ScrollTo(y float64) {
	v.mu.Lock()
	v.scrollY = y
	v.mu.Unlock()
	v.Check()
}

// Resize changes the viewport size and evaluates all observers.
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	v.Check()
}

// Check evaluates every observer and delivers pending entries. Callbacks
// run on the caller's goroutine without v's lock held.
func (v *Viewport) Check() {
	type delivery struct {
		cb      Callback
		entries []Entry
	}

	v.mu.Lock()
	var out []delivery
	for o := range v.observers {
		root := v.bounds().Expand(o.margin)
		var entries []Entry
		for _, n := range o.order {
			t, ok := o.targets[n]
			if !ok {
				continue
			}
			box, hasBox := v.layout(n)
			in := hasBox && root.Intersects(box)
			if t.evaluated && t.intersecting == in {
				continue
			}
			t.evaluated = true
			t.intersecting = in
			entries = append(entries, Entry{Target: n, IsIntersecting: in, Bounds: box})
		}
		if len(entries) > 0 {
			out = append(out, delivery{cb: o.cb, entries: entries})
		}
	}
	v.mu.Unlock()

	for _, d := range out {
		d.cb(d.entries)
	}
}

type geoTarget struct {
	evaluated    bool
	intersecting bool
}

type geoObserver struct {
	vp      *Viewport
	margin  Margin
	cb      Callback
	targets map[*html.Node]*geoTarget
	order   []*html.Node
}

func (o *geoObserver) Observe(target *html.Node) Subscription {
	o.vp.mu.Lock()
	if _, ok := o.targets[target]; !ok {
		o.targets[target] = &geoTarget{}
		o.order = append(o.order, target)
	}
	o.vp.mu.Unlock()

	return subscriptionFunc(func() { o.unobserve(target) })
}

func (o *geoObserver) unobserve(target *html.Node) {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()

	if _, ok := o.targets[target]; !ok {
		return
	}
	delete(o.targets, target)
	for i, n := range o.order {
		if n == target {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *geoObserver) Disconnect() {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()

	o.targets = make(map[*html.Node]*geoTarget)
	o.order = nil
	delete(o.vp.observers, o)
}

// StackLayout lays elements out in document order, each one height pixels
// tall and stacked below the previous element. Non-element nodes have no
// box.
func StackLayout(height float64) Layout {
	return func(n *html.Node) (Rect, bool) {
		if n == nil || n.Type != html.ElementNode {
			return Rect{}, false
		}
		root := n
		for root.Parent != nil {
			root = root.Parent
		}
		idx, found := 0, false
		var walk func(*html.Node)
		walk = func(c *html.Node) {
			for ; c != nil && !found; c = c.NextSibling {
				if c == n {
					found = true
					return
				}
				if c.Type == html.ElementNode {
					idx++
				}
				walk(c.FirstChild)
			}
		}
		walk(root.FirstChild)
		if !found {
			return Rect{}, false
		}
		return Rect{Y: float64(idx) * height, Height: height}, true
	}
}
