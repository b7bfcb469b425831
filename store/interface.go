package store

import (
	"context"

	"healthstore/httpclient"
	"healthstore/model"
)

// AuthAPI is the part of the facade the auth store calls.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (model.LoginResponse, error)
	Register(ctx context.Context, r model.Registration) (model.User, error)
}

// CartAPI is the part of the facade the cart store calls.
type CartAPI interface {
	GetCart(ctx context.Context) (model.CartResponse, error)
	AddToCart(ctx context.Context, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, cartItemID int64) error
}

// ProductsAPI is the part of the facade the products store calls.
type ProductsAPI interface {
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, in model.ProductInput, image *httpclient.File) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, in model.ProductInput, image *httpclient.File) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
