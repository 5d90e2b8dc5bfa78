// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package identity

import "sync"

// subscriber delivers notifications to one Listener on its own goroutine,
// in the order they were pushed. The queue is unbounded so the provider
// never blocks on a slow listener.
type subscriber struct {
	fn    Listener
	mu    sync.Mutex
	queue []*Identity
	wake  chan struct{}
	stop  chan struct{}
	once  sync.Once
}

func newSubscriber(fn Listener) *subscriber {
	s := &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) push(ident *Identity) {
	s.mu.Lock()
	s.queue = append(s.queue, ident)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			select {
			case <-s.stop:
				return
			default:
			}
			s.fn(next)
		}
	}
}

// fanout is the set of live subscribers of a provider.
type fanout struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]*subscriber
}

// add registers fn and queues initial as its first notification.
func (f *fanout) add(fn Listener, initial *Identity) func() {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[uint64]*subscriber)
	}
	id := f.next
	f.next++
	s := newSubscriber(fn)
	s.push(initial.Clone())
	f.subs[id] = s
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		s.close()
	}
}

func (f *fanout) publish(ident *Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s.push(ident.Clone())
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.subs {
		s.close()
		delete(f.subs, id)
	}
}

func (f *fanout) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
