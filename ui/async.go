package ui

import (
	"context"
	"sync"
)

const fallbackErrorMessage = "An error occurred"

type Hooks struct {
	OnSuccess func()
	OnError   func(error)
	OnFinally func()
}

// AsyncState tracks loading and the last error message of the calls run
// through Execute.
type AsyncState struct {
	mu      sync.Mutex
	busy    int
	message string
}

// Execute runs fn with loading set and records its error message. The
// error is returned unchanged. OnFinally runs after loading is released.
func (s *AsyncState) Execute(ctx context.Context, fn func(context.Context) error, hooks Hooks) error {
	s.mu.Lock()
	s.busy++
	s.message = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy--
		s.mu.Unlock()
		if hooks.OnFinally != nil {
			hooks.OnFinally()
		}
	}()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.message = errorMessage(err)
		s.mu.Unlock()
		if hooks.OnError != nil {
			hooks.OnError(err)
		}
		return err
	}
	if hooks.OnSuccess != nil {
		hooks.OnSuccess()
	}
	return nil
}

func (s *AsyncState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

// Error returns the last error message, or "" after a success.
func (s *AsyncState) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *AsyncState) Reset() {
	s.mu.Lock()
	s.busy = 0
	s.message = ""
	s.mu.Unlock()
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}
