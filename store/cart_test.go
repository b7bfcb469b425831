package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"healthstore/model"
)

func cartOf(items ...model.CartItem) model.CartResponse {
	return model.CartResponse{Cart: &model.Cart{ID: 1, Items: items}}
}

func TestCartTotals(t *testing.T) {
	c := NewCart(&fakeAPI{
		GetCartFn: func(context.Context) (model.CartResponse, error) {
			return cartOf(
				model.CartItem{ID: 1, Product: model.Product{Price: 10}, Quantity: 2},
				model.CartItem{ID: 2, Product: model.Product{Price: 5}, Quantity: 1},
			), nil
		},
	})
	if c.Total() != 0 || c.ItemCount() != 0 {
		t.Fatalf("empty store should total 0")
	}
	if _, err := c.FetchCart(context.Background()); err != nil {
		t.Fatalf("FetchCart failed: %v", err)
	}
	if c.Total() != 25 || c.ItemCount() != 3 {
		t.Fatalf("expected total 25 and count 3, got %v %d", c.Total(), c.ItemCount())
	}
	if c.Loading() || c.Err() != nil {
		t.Fatalf("expected settled state")
	}

	c.ClearCart()
	if c.Cart() != nil || c.Total() != 0 {
		t.Fatalf("expected cleared cart")
	}
}

func TestAddToCartRefetches(t *testing.T) {
	var added []int
	fetches := 0
	c := NewCart(&fakeAPI{
		AddToCartFn: func(_ context.Context, productID int64, qty int) error {
			added = append(added, qty)
			return nil
		},
		GetCartFn: func(context.Context) (model.CartResponse, error) {
			fetches++
			return cartOf(model.CartItem{ID: 1, Product: model.Product{ID: 3, Price: 2}, Quantity: fetches}), nil
		},
		RemoveFromCartFn: func(context.Context, int64) error { return nil },
	})

	ctx := context.Background()
	if err := c.AddToCart(ctx, 3, 0); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if err := c.AddToCart(ctx, 3, 4); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if len(added) != 2 || added[0] != 1 || added[1] != 4 {
		t.Fatalf("unexpected quantities sent: %v", added)
	}
	if err := c.RemoveFromCart(ctx, 1); err != nil {
		t.Fatalf("RemoveFromCart failed: %v", err)
	}
	if fetches != 3 {
		t.Fatalf("expected a refetch after every mutation, got %d", fetches)
	}
	if c.ItemCount() != 3 {
		t.Fatalf("expected state from the last fetch, got %d", c.ItemCount())
	}

	if err := c.AddToCart(ctx, 3, -1); err == nil || c.Err() == nil {
		t.Fatalf("expected error for negative quantity")
	}
}

func TestCartMutationFailureSkipsRefetch(t *testing.T) {
	fetched := false
	c := NewCart(&fakeAPI{
		AddToCartFn: func(context.Context, int64, int) error { return errors.New("insufficient stock") },
		GetCartFn: func(context.Context) (model.CartResponse, error) {
			fetched = true
			return cartOf(), nil
		},
	})
	err := c.AddToCart(context.Background(), 1, 1)
	if err == nil || err.Error() != "insufficient stock" {
		t.Fatalf("expected API error, got %v", err)
	}
	if fetched {
		t.Fatalf("failed mutation should not refetch")
	}
	if c.Loading() || c.Err() == nil {
		t.Fatalf("expected loading=false and error set")
	}
}

func TestStaleCartFetchIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	slowStarted := make(chan struct{})
	var mu sync.Mutex
	call := 0
	c := NewCart(&fakeAPI{
		GetCartFn: func(context.Context) (model.CartResponse, error) {
			mu.Lock()
			call++
			n := call
			mu.Unlock()
			if n == 1 {
				close(slowStarted)
				<-slow
				return cartOf(model.CartItem{ID: 1, Quantity: 99}), nil
			}
			return cartOf(model.CartItem{ID: 1, Quantity: 2}), nil
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := c.FetchCart(context.Background())
		if err != nil || resp.Cart.Items[0].Quantity != 99 {
			t.Errorf("stale caller should still get its own result: %+v %v", resp, err)
		}
	}()
	<-slowStarted

	if _, err := c.FetchCart(context.Background()); err != nil {
		t.Fatalf("FetchCart failed: %v", err)
	}
	if !c.Loading() {
		t.Fatalf("loading should stay true while the first fetch is in flight")
	}
	close(slow)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("slow fetch did not finish")
	}

	if c.ItemCount() != 2 {
		t.Fatalf("stale response overwrote newer state: count=%d", c.ItemCount())
	}
	if c.Loading() {
		t.Fatalf("loading should be false after both fetches")
	}
}
