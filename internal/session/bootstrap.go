// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session decides, once per process, who is signed in.
//
// Three sources race on Start: the provider's change notifications, the
// provider's restore probe (followed by one replay of a cached refresh token
// when the probe comes back empty), and a fallback timer that trusts the
// local cache. The first of them to resolve latches Ready. Later resolutions
// still update the identity, but Ready never goes back to false and a
// provider-confirmed identity is never replaced by the cached fallback.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/toeirei/studentdir/internal/cache"
	"github.com/toeirei/studentdir/internal/clock"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/logging"
)

// DefaultTimeout is how long Start waits before falling back to the cache.
const DefaultTimeout = 3000 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session: bootstrap already started")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session: bootstrap closed")
)

// State is the read model exposed to the rest of the client.
type State struct {
	// Identity is nil when nobody is signed in.
	Identity *identity.Identity
	// Ready latches true on the first resolution and stays true.
	Ready bool
	// Confirmed is true when Identity (or its absence) came from the
	// provider rather than the local cache.
	Confirmed bool
}

// SignedIn reports whether an identity is present.
func (s State) SignedIn() bool { return s.Identity != nil }

func (s State) clone() State {
	s.Identity = s.Identity.Clone()
	return s
}

// Options wires a Bootstrap to its collaborators.
type Options struct {
	Provider identity.Provider
	Cache    *cache.Credentials
	// Clock defaults to the real clock.
	Clock clock.Clock
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	Logger  *log.Logger
}

// Bootstrap owns the session read model.
type Bootstrap struct {
	provider identity.Provider
	creds    *cache.Credentials
	clock    clock.Clock
	timeout  time.Duration
	log      *log.Logger

	mu          sync.Mutex
	state       State
	started     bool
	closed      bool
	latched     bool
	notified    bool
	replayed    bool
	ready       chan struct{}
	timer       *clock.Timer
	unsubscribe func()
	cancel      context.CancelFunc
	watchers    map[int]chan State
	nextWatch   int

	teardown sync.Once
}

// New returns an unstarted Bootstrap.
func New(opts Options) *Bootstrap {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bootstrap{
		provider: opts.Provider,
		creds:    opts.Cache,
		clock:    clk,
		timeout:  timeout,
		log:      logging.Or(opts.Logger),
		ready:    make(chan struct{}),
		watchers: make(map[int]chan State),
	}
}

// Start reads the cached credential and launches the three resolution
// paths. It returns immediately. ctx bounds the restore probe and the
// replay; cancelling it does not stop the fallback timer.
func (b *Bootstrap) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	var cached cache.CachedCredential
	var hasCached bool
	if b.creds != nil {
		cached, hasCached = b.creds.Load()
	}
	b.log.Debug("bootstrap: starting", "cached", hasCached, "timeout", b.timeout)

	t := b.clock.AfterFunc(b.timeout, func() { b.onTimeout(cached, hasCached) })
	b.mu.Lock()
	if b.latched || b.closed {
		t.Stop()
	} else {
		b.timer = t
	}
	b.mu.Unlock()

	unsub := b.provider.Subscribe(b.onNotification)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		unsub()
	} else {
		b.unsubscribe = unsub
		b.mu.Unlock()
	}

	go b.restore(ctx, cached, hasCached)
	return nil
}

// onNotification handles one provider change notification.
func (b *Bootstrap) onNotification(ident *identity.Identity) {
	b.mu.Lock()
	first := !b.notified
	b.notified = true
	b.mu.Unlock()

	if ident != nil {
		b.log.Debug("bootstrap: provider reported identity", "id", ident.ID, "first", first)
		b.confirm(ident, "notification")
		return
	}
	if first {
		b.log.Debug("bootstrap: first notification carried no identity, ignoring")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.log.Debug("bootstrap: provider reported sign-out")
	if b.creds != nil {
		if err := b.creds.Clear(); err != nil {
			b.log.Warn("bootstrap: clearing cached credential failed", "err", err)
		}
	}
	b.state.Identity = nil
	b.state.Confirmed = true
	b.latchLocked()
	b.publishLocked()
}

// restore awaits the provider's restore probe and, when it restored
// nothing, replays the cached refresh token once.
func (b *Bootstrap) restore(ctx context.Context, cached cache.CachedCredential, hasCached bool) {
	if err := b.provider.AwaitSessionRestored(ctx); err != nil {
		b.log.Debug("bootstrap: restore probe abandoned", "err", err)
		return
	}
	if cur := b.provider.CurrentIdentity(); cur != nil {
		b.log.Debug("bootstrap: provider restored identity", "id", cur.ID)
		b.confirm(cur, "restore")
		return
	}
	if !hasCached || !cached.HasSecret() {
		b.log.Debug("bootstrap: nothing restored and no replayable credential")
		return
	}

	b.mu.Lock()
	if b.replayed || b.closed {
		b.mu.Unlock()
		return
	}
	b.replayed = true
	b.mu.Unlock()

	b.log.Debug("bootstrap: replaying cached credential", "email", cached.Email)
	ident, err := b.provider.Resume(ctx, cached.Email, cached.Secret)
	if err != nil {
		b.log.Warn("bootstrap: credential replay failed", "email", cached.Email, "err", err)
		return
	}
	b.confirm(&ident, "replay")
}

// onTimeout latches Ready with the cached fallback identity, if any, unless
// another path got there first.
func (b *Bootstrap) onTimeout(cached cache.CachedCredential, hasCached bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latched || b.closed {
		return
	}
	if hasCached {
		b.log.Debug("bootstrap: fallback timer fired, using cached identity", "id", cached.ID)
		b.state.Identity = &identity.Identity{ID: cached.ID, Email: cached.Email}
	} else {
		b.log.Debug("bootstrap: fallback timer fired with empty cache")
		b.state.Identity = nil
	}
	b.state.Confirmed = false
	b.latchLocked()
	b.publishLocked()
}

// confirm applies a provider-confirmed identity from any path.
func (b *Bootstrap) confirm(ident *identity.Identity, source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.creds != nil {
		if err := b.creds.SaveIdentity(ident.ID, ident.Email); err != nil {
			b.log.Warn("bootstrap: caching identity failed", "id", ident.ID, "err", err)
		}
	}
	confirmed := ident.Clone()
	confirmed.Confirmed = true
	b.state.Identity = confirmed
	b.state.Confirmed = true
	if !b.latched {
		b.log.Debug("bootstrap: ready", "source", source, "id", ident.ID)
	}
	b.latchLocked()
	b.publishLocked()
}

func (b *Bootstrap) latchLocked() {
	if b.latched {
		return
	}
	b.latched = true
	b.state.Ready = true
	close(b.ready)
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// publishLocked hands the latest state to every watcher. Each watcher
// channel holds at most one pending state; a newer one replaces it.
func (b *Bootstrap) publishLocked() {
	for _, ch := range b.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- b.state.clone()
	}
}

// State returns a snapshot of the read model.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// Ready is closed once the state has latched.
func (b *Bootstrap) Ready() <-chan struct{} { return b.ready }

// Wait blocks until Ready or ctx is done and returns the state at that
// point.
func (b *Bootstrap) Wait(ctx context.Context) (State, error) {
	select {
	case <-b.ready:
		return b.State(), nil
	case <-ctx.Done():
		return b.State(), ctx.Err()
	}
}

// Watch returns a channel that receives the current state right away and
// the latest state after every change. Slow readers only miss
// intermediate states. Call cancel to stop watching.
func (b *Bootstrap) Watch() (<-chan State, func()) {
	ch := make(chan State, 1)
	b.mu.Lock()
	id := b.nextWatch
	b.nextWatch++
	b.watchers[id] = ch
	ch <- b.state.clone()
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.watchers, id)
			b.mu.Unlock()
		})
	}
}

// Close unsubscribes from the provider, stops the timer and cancels the
// restore path. Only the first call has any effect.
func (b *Bootstrap) Close() {
	b.teardown.Do(func() {
		b.mu.Lock()
		b.closed = true
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		unsub := b.unsubscribe
		b.unsubscribe = nil
		if b.cancel != nil {
			b.cancel()
		}
		b.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		b.log.Debug("bootstrap: closed")
	})
}
