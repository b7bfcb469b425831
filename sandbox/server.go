// Package sandbox is a self-contained in-memory storefront backend. It
// serves every endpoint the client uses, so the CLI and the package tests
// can run without the real service.
package sandbox

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"healthstore/logging"
)

type Server struct {
	svc     *Service
	handler http.Handler
	logger  *zap.Logger
}

type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
	seed   bool
}

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock sets the clock used for token expiry and timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithoutSeed starts with no users or catalogue.
func WithoutSeed() Option { return func(o *options) { o.seed = false } }

// New builds a seeded sandbox whose tokens are signed with secret.
func New(secret string, opts ...Option) (*Server, error) {
	o := options{now: time.Now, seed: true}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	svc := NewService(o.now)
	if o.seed {
		if err := svc.Seed(); err != nil {
			return nil, err
		}
	}

	r := mux.NewRouter()
	NewHandler(svc, NewIssuer(secret, o.now), logger).RegisterRoutes(r)
	return &Server{svc: svc, handler: r, logger: logger}, nil
}

func (s *Server) Handler() http.Handler { return s.handler }
func (s *Server) Service() *Service     { return s.svc }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sandbox listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
