package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmDefaults(t *testing.T) {
	var shown ConfirmOptions
	var c *Confirmer
	c = NewConfirmer(func(o ConfirmOptions) {
		shown = o
		assert.True(t, c.IsOpen())
		c.HandleConfirm()
	})

	ok, err := c.Confirm(context.Background(), ConfirmOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ConfirmOptions{
		Title:       "Confirm Action",
		Message:     "Are you sure you want to proceed?",
		ConfirmText: "Confirm",
		CancelText:  "Cancel",
		Variant:     VariantDanger,
	}, shown)
	assert.False(t, c.IsOpen())
}

func TestConfirmCancel(t *testing.T) {
	var c *Confirmer
	c = NewConfirmer(func(o ConfirmOptions) {
		assert.Equal(t, "Delete Item", o.Title)
		assert.Equal(t, VariantWarning, o.Variant)
		c.HandleCancel()
	})

	ok, err := c.Confirm(context.Background(), ConfirmOptions{Title: "Delete Item", Variant: VariantWarning})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmSuperseded(t *testing.T) {
	c := NewConfirmer(nil)

	first := make(chan error, 1)
	go func() {
		_, err := c.Confirm(context.Background(), ConfirmOptions{Title: "first"})
		first <- err
	}()
	require.Eventually(t, c.IsOpen, 5*time.Second, time.Millisecond)

	second := make(chan bool, 1)
	go func() {
		ok, _ := c.Confirm(context.Background(), ConfirmOptions{Title: "second"})
		second <- ok
	}()

	select {
	case err := <-first:
		assert.True(t, errors.Is(err, ErrSuperseded))
	case <-time.After(5 * time.Second):
		t.Fatalf("first request was not superseded")
	}

	require.Eventually(t, func() bool {
		o, ok := c.Pending()
		return ok && o.Title == "second"
	}, 5*time.Second, time.Millisecond)
	c.HandleConfirm()
	assert.True(t, <-second)
}

func TestConfirmContextCancel(t *testing.T) {
	c := NewConfirmer(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := c.Confirm(ctx, ConfirmOptions{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.IsOpen())

	// Late answers are ignored.
	c.HandleConfirm()
}

func TestConfirmLoading(t *testing.T) {
	var c *Confirmer
	c = NewConfirmer(func(ConfirmOptions) {
		c.SetLoading(true)
		assert.True(t, c.Loading())
		c.HandleConfirm()
	})

	ok, err := c.Confirm(context.Background(), ConfirmOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, c.Loading())
}
