// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/toeirei/studentdir/internal/clock"
	"github.com/toeirei/studentdir/internal/logging"
	"github.com/toeirei/studentdir/internal/session"
)

// DefaultGrace is how long Fetch waits when the identity came from the
// local cache, giving the provider a moment to confirm it first.
const DefaultGrace = time.Second

// ErrSignedOut is returned by Fetch when nobody is signed in.
var ErrSignedOut = errors.New("directory: not signed in")

// Fetcher loads the student list for the home screen and keeps the last
// good list when a fetch fails.
type Fetcher struct {
	store      Store
	collection string
	clock      clock.Clock
	grace      time.Duration
	log        *log.Logger

	mu       sync.Mutex
	students []Student
}

// FetcherOptions configures a Fetcher. Zero values pick the defaults.
type FetcherOptions struct {
	Collection string
	Clock      clock.Clock
	Grace      time.Duration
	Logger     *log.Logger
}

// NewFetcher returns a Fetcher over store.
func NewFetcher(store Store, opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		store:      store,
		collection: opts.Collection,
		clock:      opts.Clock,
		grace:      opts.Grace,
		log:        logging.Or(opts.Logger),
	}
	if f.collection == "" {
		f.collection = DefaultCollection
	}
	if f.clock == nil {
		f.clock = clock.Real()
	}
	if f.grace <= 0 {
		f.grace = DefaultGrace
	}
	return f
}

// Fetch lists the collection for the identity in st. On failure it returns
// the previous list together with the error.
func (f *Fetcher) Fetch(ctx context.Context, st session.State) ([]Student, error) {
	if !st.SignedIn() {
		return f.Students(), ErrSignedOut
	}
	if !st.Confirmed {
		f.log.Debug("fetch: identity unconfirmed, waiting", "grace", f.grace)
		if err := f.sleep(ctx, f.grace); err != nil {
			return f.Students(), err
		}
	}
	recs, err := f.store.ListRecords(ctx, f.collection)
	if err != nil {
		var qe *QueryError
		if !errors.As(err, &qe) {
			err = &QueryError{Collection: f.collection, Err: err}
		}
		f.log.Warn("fetch: listing failed", "collection", f.collection, "err", err)
		return f.Students(), err
	}
	list := make([]Student, 0, len(recs))
	for _, r := range recs {
		list = append(list, StudentFromRecord(r))
	}
	f.mu.Lock()
	f.students = list
	f.mu.Unlock()
	return f.Students(), nil
}

// Students returns a copy of the last successfully fetched list.
func (f *Fetcher) Students() []Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Student(nil), f.students...)
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	done := make(chan struct{})
	t := f.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}
