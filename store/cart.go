package store

import (
	"context"
	"errors"

	"healthstore/model"
)

// Cart mirrors the server cart. Mutations never patch local state; they
// refetch the whole cart instead.
type Cart struct {
	state

	api  CartAPI
	gen  generation
	cart *model.Cart
}

func NewCart(api CartAPI) *Cart {
	return &Cart{api: api}
}

func (c *Cart) FetchCart(ctx context.Context) (model.CartResponse, error) {
	release := c.begin()
	defer release()
	return c.fetch(ctx)
}

func (c *Cart) fetch(ctx context.Context) (model.CartResponse, error) {
	c.mu.Lock()
	id := c.gen.next()
	c.mu.Unlock()

	resp, err := c.api.GetCart(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gen.isLatest(id) {
		return resp, err
	}
	if err != nil {
		c.err = err
		return resp, err
	}
	c.cart = resp.Cart
	return resp, nil
}

// AddToCart adds quantity units of a product; 0 means 1.
func (c *Cart) AddToCart(ctx context.Context, productID int64, quantity int) error {
	release := c.begin()
	defer release()

	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return c.fail(errors.New("quantity must be > 0"))
	}
	if err := c.api.AddToCart(ctx, productID, quantity); err != nil {
		return c.fail(err)
	}
	_, err := c.fetch(ctx)
	return err
}

func (c *Cart) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	release := c.begin()
	defer release()

	if err := c.api.RemoveFromCart(ctx, cartItemID); err != nil {
		return c.fail(err)
	}
	_, err := c.fetch(ctx)
	return err
}

// ClearCart forgets the local mirror. The server cart is untouched.
func (c *Cart) ClearCart() {
	c.mu.Lock()
	c.cart = nil
	c.gen.next()
	c.mu.Unlock()
}

// Cart returns a copy of the mirrored cart, or nil before the first fetch.
func (c *Cart) Cart() *model.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cart == nil {
		return nil
	}
	cp := *c.cart
	cp.Items = append([]model.CartItem(nil), c.cart.Items...)
	return &cp
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.ItemCount()
}
