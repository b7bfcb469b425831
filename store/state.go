// Package store holds the client-side mirrors of server state (session,
// cart, catalogue). Every action follows the same discipline: mark busy and
// clear the error, call the facade, replace state or record the error, and
// release busy on every exit path.
package store

import "sync"

// state is the loading/error pair embedded in every store.
type state struct {
	mu   sync.Mutex
	busy int
	err  error
}

// begin marks the store busy and clears the error. The returned func
// releases it and must be deferred.
func (s *state) begin() func() {
	s.mu.Lock()
	s.busy++
	s.err = nil
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.busy--
			s.mu.Unlock()
		})
	}
}

// fail records err and returns it.
func (s *state) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

// Loading reports whether any action is in flight.
func (s *state) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

// Err returns the error of the last failed action, or nil.
func (s *state) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// generation hands out increasing ids to fetches of one kind so a response
// that arrives after a newer fetch started can be discarded. Guarded by the
// owning store's mutex.
type generation struct {
	latest uint64
}

func (g *generation) next() uint64 {
	g.latest++
	return g.latest
}

func (g *generation) isLatest(id uint64) bool { return id == g.latest }
