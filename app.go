package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"healthstore/api"
	"healthstore/config"
	"healthstore/httpclient"
	"healthstore/storage"
	"healthstore/store"
	"healthstore/ui"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
	storage *storage.Storage
	api     *api.API

	auth     *store.Auth
	cart     *store.Cart
	products *store.Products

	notifier  *ui.Notifier
	confirmer *ui.Confirmer
	caller    *ui.Caller

	// Set while the session file is watched.
	reloads   chan struct{}
	stopWatch func()
}

var current *app

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer, yes bool) (*app, error) {
	st, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	tokens := st.String(cfg.Storage.TokenKey)
	client := httpclient.New(cfg.API.BaseURL, tokens,
		httpclient.WithTimeout(cfg.GetAPITimeout()),
		httpclient.WithLogger(logger),
		httpclient.WithDownloadDir(cfg.Downloads.Dir))
	facade := api.New(client)

	// Notifications are flushed to the terminal when the command ends, so
	// they never auto-dismiss.
	notifier := ui.NewNotifier(ui.WithDefaultDuration(0))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		storage:  st,
		api:      facade,
		auth:     store.NewAuth(facade, st, store.WithStorageKeys(cfg.Storage.TokenKey, cfg.Storage.UserKey)),
		cart:     store.NewCart(facade),
		products: store.NewProducts(facade),
		notifier: notifier,
		caller:   ui.NewCaller(notifier),
	}
	a.confirmer = ui.NewConfirmer(terminalPresenter(a, in, out, yes))

	if cfg.Storage.Watch {
		if _, err := a.watchSession(ctx); err != nil {
			logger.Warn("session watch disabled", zap.Error(err))
		}
	}
	return a, nil
}

// watchSession follows session changes written by other processes to the
// storage file and reloads auth after each burst of writes. The returned
// channel receives a value after every reload. Calling it again returns
// the same channel.
func (a *app) watchSession(ctx context.Context) (<-chan struct{}, error) {
	if a.reloads != nil {
		return a.reloads, nil
	}
	file, ok := a.storage.Backend().(*storage.File)
	if !ok {
		return nil, errors.New("session watch needs storage.driver=file")
	}
	ctx, cancel := context.WithCancel(ctx)
	keys, err := file.Watch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	reloads := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Login writes two keys back to back; coalesce them into one reload.
		var pending <-chan time.Time
		for {
			select {
			case k, ok := <-keys:
				if !ok {
					return
				}
				if k != a.cfg.Storage.TokenKey && k != a.cfg.Storage.UserKey {
					continue
				}
				a.logger.Debug("session key changed", zap.String("key", k))
				pending = time.After(a.cfg.GetDebounceDelay())
			case <-pending:
				pending = nil
				a.auth.Reload()
				select {
				case reloads <- struct{}{}:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	a.reloads = reloads
	a.stopWatch = func() {
		cancel()
		<-done
	}
	return reloads, nil
}

// getApp builds the app for cmd on first use.
func getApp(cmd *cobra.Command) (*app, error) {
	if current != nil {
		return current, nil
	}
	a, err := newApp(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout(), assumeYes)
	if err != nil {
		return nil, err
	}
	current = a
	return a, nil
}

func closeApp() {
	if current == nil {
		return
	}
	if current.stopWatch != nil {
		current.stopWatch()
	}
	current.flush()
	current.notifier.Close()
	if err := current.storage.Close(); err != nil {
		current.logger.Warn("close storage", zap.Error(err))
	}
	current = nil
}

// flush prints and clears pending notifications.
func (a *app) flush() {
	for _, n := range a.notifier.List() {
		fmt.Fprintln(a.out, renderNotification(n))
	}
	a.notifier.Clear()
}

// errReported is returned once a failure has already been shown as a
// notification; main exits non-zero without printing it again.
var errReported = errors.New("error already reported")

// run executes fn through the caller so failures land on the notifier.
// success, when set, is shown as a success notification.
func (a *app) run(cmd *cobra.Command, success string, fn func(context.Context) error) error {
	err := a.caller.Call(cmd.Context(), fn, ui.CallOptions{
		SuccessMessage: success,
		ShowSuccess:    success != "",
	})
	if err != nil {
		a.logger.Debug("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		return errReported
	}
	return nil
}

// confirm asks before a destructive action.
func (a *app) confirm(cmd *cobra.Command, opts ui.ConfirmOptions) (bool, error) {
	return a.confirmer.Confirm(cmd.Context(), opts)
}

func (a *app) requireLogin() error {
	if !a.auth.IsAuthenticated() {
		return errors.New("not logged in; run `healthstore login` first")
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !a.auth.IsAdmin() {
		return errors.New("admin access required")
	}
	return nil
}

func (a *app) print(s string) { fmt.Fprintln(a.out, s) }

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func terminalPresenter(a *app, in io.Reader, out io.Writer, yes bool) ui.Presenter {
	reader := bufio.NewReader(in)
	return func(o ui.ConfirmOptions) {
		fmt.Fprintln(out, renderConfirm(o))
		if yes {
			a.confirmer.HandleConfirm()
			return
		}
		fmt.Fprintf(out, "%s / %s [y/N]: ", o.ConfirmText, o.CancelText)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			a.confirmer.HandleCancel()
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			a.confirmer.HandleConfirm()
		default:
			a.confirmer.HandleCancel()
		}
	}
}
