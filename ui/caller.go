package ui

import "context"

type CallOptions struct {
	OnSuccess func()
	OnError   func(error)

	// SuccessMessage is shown only when ShowSuccess is set.
	SuccessMessage string
	ShowSuccess    bool

	// ErrorMessage replaces the error text in the notification.
	ErrorMessage string
	SilenceError bool
}

// Caller runs facade calls through an AsyncState and reports the outcome
// on a Notifier.
type Caller struct {
	AsyncState

	notifier *Notifier
}

// NewCaller returns a Caller that notifies on n. A nil n disables
// notifications.
func NewCaller(n *Notifier) *Caller {
	return &Caller{notifier: n}
}

func (c *Caller) Call(ctx context.Context, fn func(context.Context) error, opts CallOptions) error {
	return c.Execute(ctx, fn, Hooks{
		OnSuccess: func() {
			if opts.ShowSuccess && opts.SuccessMessage != "" && c.notifier != nil {
				c.notifier.Success(opts.SuccessMessage)
			}
			if opts.OnSuccess != nil {
				opts.OnSuccess()
			}
		},
		OnError: func(err error) {
			if !opts.SilenceError && c.notifier != nil {
				msg := opts.ErrorMessage
				if msg == "" {
					msg = errorMessage(err)
				}
				c.notifier.Error(msg)
			}
			if opts.OnError != nil {
				opts.OnError(err)
			}
		},
	})
}
