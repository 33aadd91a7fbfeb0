package blockload

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// loop runs tasks one at a time on a single goroutine. Work that suspends
// (module loads, fragment fetches) runs in its own goroutine and posts a
// continuation back, so tree mutation never happens concurrently.
//
// pending counts queued tasks plus in-flight async work; the loop is idle
// when it reaches zero.
type loop struct {
	logger *zap.Logger

	mu      sync.Mutex
	queue   []func()
	pending int
	idle    chan struct{}
	closed  bool

	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}
	async sync.WaitGroup
}

func newLoop(logger *zap.Logger) *loop {
	idle := make(chan struct{})
	close(idle)
	l := &loop{
		logger: logger,
		idle:   idle,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// post queues task. It never blocks and reports false once closed.
func (l *loop) post(task func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.beginLocked()
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// spawn runs task in a new goroutine and posts its continuation.
func (l *loop) spawn(ctx context.Context, task func(ctx context.Context) func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.beginLocked()
	l.async.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.async.Done()
		defer l.finish()
		if cont := l.runAsync(ctx, task); cont != nil {
			l.post(cont)
		}
	}()
	return true
}

func (l *loop) beginLocked() {
	if l.pending == 0 {
		l.idle = make(chan struct{})
	}
	l.pending++
}

func (l *loop) finish() {
	l.mu.Lock()
	l.pending--
	if l.pending == 0 {
		close(l.idle)
	}
	l.mu.Unlock()
}

func (l *loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			select {
			case <-l.wake:
				continue
			case <-l.stop:
				return
			}
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(task)
		l.finish()
	}
}

func (l *loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

func (l *loop) runAsync(ctx context.Context, task func(ctx context.Context) func()) (cont func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("async task panicked", zap.String("panic", fmt.Sprint(r)))
			cont = nil
		}
	}()
	return task(ctx)
}

// settle blocks until the loop is idle, ctx ends, or the loop closes.
func (l *loop) settle(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		if l.pending == 0 {
			l.mu.Unlock()
			return nil
		}
		idle := l.idle
		l.mu.Unlock()

		select {
		case <-idle:
		case <-l.stop:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close stops the loop and waits for async goroutines to return. Queued
// tasks that have not started are dropped.
func (l *loop) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.stop)
	l.mu.Unlock()

	<-l.done
	l.async.Wait()
}
