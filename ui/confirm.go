package ui

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded settles a pending confirmation when a newer one is opened.
var ErrSuperseded = errors.New("confirmation superseded by a newer request")

type Variant string

const (
	VariantDanger  Variant = "danger"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
	VariantDefault Variant = "default"
)

type ConfirmOptions struct {
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	Variant     Variant
}

func (o ConfirmOptions) withDefaults() ConfirmOptions {
	if o.Title == "" {
		o.Title = "Confirm Action"
	}
	if o.Message == "" {
		o.Message = "Are you sure you want to proceed?"
	}
	if o.ConfirmText == "" {
		o.ConfirmText = "Confirm"
	}
	if o.CancelText == "" {
		o.CancelText = "Cancel"
	}
	if o.Variant == "" {
		o.Variant = VariantDanger
	}
	return o
}

// Presenter shows an open request to the user. It runs on the goroutine
// that called Confirm and may block until it calls HandleConfirm or
// HandleCancel.
type Presenter func(ConfirmOptions)

type request struct {
	opts    ConfirmOptions
	done    chan struct{}
	ok      bool
	err     error
	settled bool
}

// settle must be called with the Confirmer mutex held.
func (r *request) settle(ok bool, err error) {
	if r.settled {
		return
	}
	r.settled = true
	r.ok, r.err = ok, err
	close(r.done)
}

// Confirmer runs one confirmation at a time.
type Confirmer struct {
	mu        sync.Mutex
	presenter Presenter
	pending   *request
	loading   bool
}

func NewConfirmer(p Presenter) *Confirmer {
	return &Confirmer{presenter: p}
}

// Confirm opens a request and blocks until it is confirmed, cancelled,
// superseded or ctx is done.
func (c *Confirmer) Confirm(ctx context.Context, opts ConfirmOptions) (bool, error) {
	req := &request{opts: opts.withDefaults(), done: make(chan struct{})}

	c.mu.Lock()
	if c.pending != nil {
		c.pending.settle(false, ErrSuperseded)
	}
	c.pending = req
	c.loading = false
	presenter := c.presenter
	c.mu.Unlock()

	if presenter != nil {
		presenter(req.opts)
	}

	select {
	case <-req.done:
	case <-ctx.Done():
		c.mu.Lock()
		req.settle(false, ctx.Err())
		if c.pending == req {
			c.pending = nil
			c.loading = false
		}
		c.mu.Unlock()
	}
	return req.ok, req.err
}

func (c *Confirmer) HandleConfirm() { c.resolve(true) }
func (c *Confirmer) HandleCancel()  { c.resolve(false) }

func (c *Confirmer) resolve(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return
	}
	c.pending.settle(ok, nil)
	c.pending = nil
	c.loading = false
}

// Pending returns the options of the open request.
func (c *Confirmer) Pending() (ConfirmOptions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return ConfirmOptions{}, false
	}
	return c.pending.opts, true
}

func (c *Confirmer) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// SetLoading marks the open dialog busy while the confirmed action runs.
func (c *Confirmer) SetLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Confirmer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
