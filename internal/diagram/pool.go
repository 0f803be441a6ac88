package diagram

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one browser is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// session is one rendering context, typically a browser with the Mermaid
// host page loaded.
type session interface {
	Render(ctx context.Context, code string) (string, error)
	Close() error
}

// launchFunc starts a new session.
type launchFunc func(ctx context.Context) (session, error)

// BrowserPool hands out browser sessions for parallel rendering.
// Sessions are launched lazily on first acquire to avoid startup delay, and
// at most Size of them ever exist.
type BrowserPool struct {
	size     int
	launch   launchFunc
	sessions []session
	sem      chan session
	freed    chan struct{} // a slot was given up by Discard or a failed launch
	mu       sync.Mutex
	created  int
	closed   bool
}

// newBrowserPool creates a pool with capacity for n sessions.
func newBrowserPool(n int, launch launchFunc) *BrowserPool {
	if n < 1 {
		n = 1
	}

	return &BrowserPool{
		size:     n,
		launch:   launch,
		sessions: make([]session, 0, n),
		sem:      make(chan session, n),
		freed:    make(chan struct{}, n),
	}
}

// Acquire gets a session from the pool, launching one if capacity allows.
// While the pool is full it waits for a released session or a freed slot,
// until ctx is done.
func (p *BrowserPool) Acquire(ctx context.Context) (session, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	for {
		select {
		case s, ok := <-p.sem:
			if !ok {
				return nil, ErrPoolClosed
			}
			return s, nil
		default:
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if p.created < p.size {
			p.created++
			p.mu.Unlock()
			return p.launchSession(ctx)
		}
		p.mu.Unlock()

		select {
		case s, ok := <-p.sem:
			if !ok {
				return nil, ErrPoolClosed
			}
			return s, nil
		case <-p.freed:
			// Recheck capacity; another waiter may have taken the slot.
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// launchSession starts a session for a slot already counted in created.
func (p *BrowserPool) launchSession(ctx context.Context) (session, error) {
	// Launch outside the lock; a browser takes seconds to start.
	s, err := p.launch(ctx)
	if err != nil {
		p.mu.Lock()
		p.freeSlot()
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close()
		return nil, ErrPoolClosed
	}
	p.sessions = append(p.sessions, s)
	return s, nil
}

// freeSlot gives a slot back and wakes one waiter. Callers hold mu.
func (p *BrowserPool) freeSlot() {
	p.created--
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

// Release returns a session to the pool.
// The send happens under the lock so it cannot race with Close; it never
// blocks because the channel holds every session the pool can create.
func (p *BrowserPool) Release(s session) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- s
}

// Discard drops a broken session and frees its slot for a fresh launch,
// waking an Acquire that is waiting for one.
func (p *BrowserPool) Discard(s session) {
	if s == nil {
		return
	}
	_ = s.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.sessions {
		if existing == s {
			p.sessions = append(p.sessions[:i], p.sessions[i+1:]...)
			p.freeSlot()
			return
		}
	}
}

// Close shuts down every launched session.
// Returns an aggregated error if multiple sessions fail to close.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	// Idle sessions must not be handed out after Close.
	for range p.sem {
	}
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *BrowserPool) Size() int {
	return p.size
}

// Launched returns how many sessions currently exist.
func (p *BrowserPool) Launched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// ResolvePoolSize determines the browser pool size.
// Priority: explicit size > GOMAXPROCS-based calculation.
func ResolvePoolSize(size int) int {
	if size > 0 {
		return size
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
