package blockload

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
	"github.com/pthm/blockload/lib/viewport"
)

// scheduler defers lazy matches of one scan until they near the viewport.
// Its observer is created on first use and disconnected once every
// observed element has fired.
//
// Deliveries may come from any goroutine; they are posted to the loop and
// handled there. A target is unsubscribed before it is activated, and
// entries for targets no longer in subs are dropped, so each element fires
// at most once.
type scheduler struct {
	e        *Engine
	scan     string
	observer viewport.Observer
	subs     map[*html.Node]*lazyTarget
}

// lazyTarget is one observed element and the selectors it was matched
// under during the scan.
type lazyTarget struct {
	sub       viewport.Subscription
	selectors []string
}

func newScheduler(e *Engine, scan string) *scheduler {
	return &scheduler{
		e:    e,
		scan: scan,
		subs: make(map[*html.Node]*lazyTarget),
	}
}

func (s *scheduler) observe(el *html.Node, selector string) {
	if t, ok := s.subs[el]; ok {
		t.selectors = append(t.selectors, selector)
		return
	}
	if s.observer == nil {
		s.observer = s.e.proximity(s.e.margin, s.deliver)
	}
	t := &lazyTarget{selectors: []string{selector}}
	s.subs[el] = t
	t.sub = s.observer.Observe(el)
	s.e.trace.record(Event{Kind: EventObserve, Selector: selector, Scan: s.scan})
}

func (s *scheduler) deliver(entries []viewport.Entry) {
	batch := append([]viewport.Entry(nil), entries...)
	s.e.loop.post(func() { s.onIntersection(batch) })
}

func (s *scheduler) onIntersection(entries []viewport.Entry) {
	for _, entry := range entries {
		if !entry.IsIntersecting {
			continue
		}
		t, ok := s.subs[entry.Target]
		if !ok || t.sub == nil {
			continue
		}
		delete(s.subs, entry.Target)
		t.sub.Unsubscribe()
		for _, selector := range t.selectors {
			dom.SetAttr(entry.Target, BindingAttr, selector)
			s.e.activateElement(entry.Target, s.scan)
		}
	}

	if len(s.subs) == 0 && s.observer != nil {
		s.observer.Disconnect()
		s.observer = nil
		s.e.logger.Debug("all lazy blocks fired", zap.String("scan", s.scan))
	}
}
