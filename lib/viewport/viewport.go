// Package viewport models the proximity mechanism that drives lazy block
// activation: observers watch elements and report, in batches, whether each
// one lies within a margin-expanded viewport.
package viewport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrInvalidMargin is returned by ParseMargin for malformed input.
var ErrInvalidMargin = errors.New("viewport: invalid margin")

// DefaultMargin is used when no margin is configured.
const DefaultMargin = "1000px 0px"

// Margin grows (or, when negative, shrinks) the viewport on each side
// before intersections are computed. Values are CSS pixels.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// ParseMargin parses CSS margin shorthand with one to four lengths.
// Each length is a pixel value ("1200px") or a bare zero.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return Margin{}, fmt.Errorf("%w: %q", ErrInvalidMargin, s)
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseLength(f)
		if err != nil {
			return Margin{}, fmt.Errorf("%w: %q", ErrInvalidMargin, s)
		}
		vals[i] = v
	}

	switch len(vals) {
	case 1:
		return Margin{vals[0], vals[0], vals[0], vals[0]}, nil
	case 2:
		return Margin{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Margin{vals[0], vals[1], vals[2], vals[1]}, nil
	default:
		return Margin{vals[0], vals[1], vals[2], vals[3]}, nil
	}
}

// MustParseMargin is like ParseMargin but panics on error.
func MustParseMargin(s string) Margin {
	m, err := ParseMargin(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parseLength(s string) (float64, error) {
	if s == "0" {
		return 0, nil
	}
	num, ok := strings.CutSuffix(s, "px")
	if !ok {
		return 0, errors.New("missing px unit")
	}
	return strconv.ParseFloat(num, 64)
}

// String renders the margin in four-value shorthand.
func (m Margin) String() string {
	return fmt.Sprintf("%gpx %gpx %gpx %gpx", m.Top, m.Right, m.Bottom, m.Left)
}

// Rect is an axis-aligned box in document coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Expand grows r by m on every side.
func (r Rect) Expand(m Margin) Rect {
	return Rect{
		X:      r.X - m.Left,
		Y:      r.Y - m.Top,
		Width:  r.Width + m.Left + m.Right,
		Height: r.Height + m.Top + m.Bottom,
	}
}

// Intersects reports whether r and o overlap. Touching edges count, which
// matches how visibility observers treat zero-area intersections.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

// Entry reports the visibility state of one observed target.
type Entry struct {
	Target         *html.Node
	IsIntersecting bool
	Bounds         Rect
}

// Callback receives batches of entries. Entries within a batch arrive in
// no guaranteed order.
type Callback func(entries []Entry)

// Subscription is the handle returned for one observed target.
// Unsubscribe stops further reports for it and is safe to call twice.
type Subscription interface {
	Unsubscribe()
}

// Observer watches targets on behalf of one callback.
type Observer interface {
	Observe(target *html.Node) Subscription
	Disconnect()
}

// Factory creates an observer configured with a margin.
type Factory func(m Margin, cb Callback) Observer

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() { f() }
