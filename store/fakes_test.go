package store

import (
	"context"

	"healthstore/httpclient"
	"healthstore/model"
)

// ---- fakeAPI implementing every store interface for tests ----
type fakeAPI struct {
	LoginFn          func(ctx context.Context, username, password string) (model.LoginResponse, error)
	RegisterFn       func(ctx context.Context, r model.Registration) (model.User, error)
	GetCartFn        func(ctx context.Context) (model.CartResponse, error)
	AddToCartFn      func(ctx context.Context, productID int64, quantity int) error
	RemoveFromCartFn func(ctx context.Context, cartItemID int64) error
	GetProductsFn    func(ctx context.Context) ([]model.Product, error)
	GetProductFn     func(ctx context.Context, id int64) (model.Product, error)
	GetCategoriesFn  func(ctx context.Context) ([]model.Category, error)
	CreateProductFn  func(ctx context.Context, in model.ProductInput, image *httpclient.File) (model.Product, error)
	UpdateProductFn  func(ctx context.Context, id int64, in model.ProductInput, image *httpclient.File) (model.Product, error)
	DeleteProductFn  func(ctx context.Context, id int64) error
}

func (f *fakeAPI) Login(ctx context.Context, u, p string) (model.LoginResponse, error) {
	return f.LoginFn(ctx, u, p)
}
func (f *fakeAPI) Register(ctx context.Context, r model.Registration) (model.User, error) {
	return f.RegisterFn(ctx, r)
}
func (f *fakeAPI) GetCart(ctx context.Context) (model.CartResponse, error) { return f.GetCartFn(ctx) }
func (f *fakeAPI) AddToCart(ctx context.Context, productID int64, qty int) error {
	return f.AddToCartFn(ctx, productID, qty)
}
func (f *fakeAPI) RemoveFromCart(ctx context.Context, id int64) error {
	return f.RemoveFromCartFn(ctx, id)
}
func (f *fakeAPI) GetProducts(ctx context.Context) ([]model.Product, error) {
	return f.GetProductsFn(ctx)
}
func (f *fakeAPI) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	return f.GetProductFn(ctx, id)
}
func (f *fakeAPI) GetCategories(ctx context.Context) ([]model.Category, error) {
	return f.GetCategoriesFn(ctx)
}
func (f *fakeAPI) CreateProduct(ctx context.Context, in model.ProductInput, img *httpclient.File) (model.Product, error) {
	return f.CreateProductFn(ctx, in, img)
}
func (f *fakeAPI) UpdateProduct(ctx context.Context, id int64, in model.ProductInput, img *httpclient.File) (model.Product, error) {
	return f.UpdateProductFn(ctx, id, in, img)
}
func (f *fakeAPI) DeleteProduct(ctx context.Context, id int64) error { return f.DeleteProductFn(ctx, id) }
