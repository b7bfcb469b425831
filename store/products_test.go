package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"healthstore/httpclient"
	"healthstore/model"
)

var catalogue = []model.Product{
	{ID: 1, Name: "Veggie Capsules", Description: "plant based", CategoryID: 2},
	{ID: 2, Name: "Fish Oil", Description: "omega 3", CategoryID: 1},
	{ID: 3, Name: "Greens Powder", Description: "VEGetable blend", CategoryID: 2},
	{ID: 4, Name: "Protein", Description: "whey", CategoryID: 2},
	{ID: 5, Name: "Vegan Protein", Description: "pea", CategoryID: 3},
}

func TestFilteredProducts(t *testing.T) {
	p := NewProducts(&fakeAPI{
		GetProductsFn: func(context.Context) ([]model.Product, error) { return catalogue, nil },
	})
	if _, err := p.FetchProducts(context.Background()); err != nil {
		t.Fatalf("FetchProducts failed: %v", err)
	}

	if diff := cmp.Diff(catalogue, p.FilteredProducts()); diff != "" {
		t.Fatalf("no filter should return everything (-want +got):\n%s", diff)
	}

	p.SetSelectedCategory(2)
	p.SetSearchQuery("veg")
	want := []model.Product{catalogue[0], catalogue[2]}
	if diff := cmp.Diff(want, p.FilteredProducts()); diff != "" {
		t.Fatalf("category 2 + veg (-want +got):\n%s", diff)
	}

	p.SetSelectedCategory(0)
	want = []model.Product{catalogue[0], catalogue[2], catalogue[4]}
	if diff := cmp.Diff(want, p.FilteredProducts()); diff != "" {
		t.Fatalf("veg only (-want +got):\n%s", diff)
	}

	p.SetSearchQuery("nothing matches")
	if got := p.FilteredProducts(); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestProductMutationsRefetch(t *testing.T) {
	var fetches int32
	p := NewProducts(&fakeAPI{
		GetProductsFn: func(context.Context) ([]model.Product, error) {
			atomic.AddInt32(&fetches, 1)
			return catalogue[:2], nil
		},
		CreateProductFn: func(_ context.Context, in model.ProductInput, img *httpclient.File) (model.Product, error) {
			return model.Product{ID: 10, Name: in.Name}, nil
		},
		UpdateProductFn: func(_ context.Context, id int64, in model.ProductInput, img *httpclient.File) (model.Product, error) {
			return model.Product{ID: id, Name: in.Name}, nil
		},
		DeleteProductFn: func(context.Context, int64) error { return nil },
	})
	ctx := context.Background()

	created, err := p.CreateProduct(ctx, model.ProductInput{Name: "Zinc", Price: 3}, nil)
	if err != nil || created.ID != 10 {
		t.Fatalf("unexpected create result %+v %v", created, err)
	}
	if _, err := p.UpdateProduct(ctx, 10, model.ProductInput{Name: "Zinc+", Price: 3}, nil); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if err := p.DeleteProduct(ctx, 10); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if fetches != 3 {
		t.Fatalf("expected one refetch per mutation, got %d", fetches)
	}
	if len(p.Products()) != 2 || p.Loading() || p.Err() != nil {
		t.Fatalf("unexpected state: %d products loading=%v err=%v", len(p.Products()), p.Loading(), p.Err())
	}

	if _, err := p.CreateProduct(ctx, model.ProductInput{Name: "", Price: 1}, nil); err == nil || p.Err() == nil {
		t.Fatalf("expected validation error recorded")
	}
}

func TestProductsFailureKeepsPreviousList(t *testing.T) {
	fail := false
	p := NewProducts(&fakeAPI{
		GetProductsFn: func(context.Context) ([]model.Product, error) {
			if fail {
				return nil, errors.New("Request failed with status 500")
			}
			return catalogue, nil
		},
		GetProductFn: func(context.Context, int64) (model.Product, error) {
			return model.Product{}, errors.New("not found")
		},
	})
	ctx := context.Background()
	_, _ = p.FetchProducts(ctx)

	fail = true
	if _, err := p.FetchProducts(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if p.Err() == nil || p.Loading() {
		t.Fatalf("expected error set and loading false")
	}
	if len(p.Products()) != len(catalogue) {
		t.Fatalf("failed fetch should not clear products")
	}

	if _, err := p.FetchProduct(ctx, 99); err == nil || p.Err().Error() != "not found" {
		t.Fatalf("expected FetchProduct error recorded, got %v", p.Err())
	}
}

func TestFetchCategoriesAndRefresh(t *testing.T) {
	cats := []model.Category{{ID: 1, Name: "Oils"}, {ID: 2, Name: "Greens"}}
	p := NewProducts(&fakeAPI{
		GetProductsFn:   func(context.Context) ([]model.Product, error) { return catalogue, nil },
		GetCategoriesFn: func(context.Context) ([]model.Category, error) { return cats, nil },
	})

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if diff := cmp.Diff(cats, p.Categories()); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
	if len(p.Products()) != len(catalogue) {
		t.Fatalf("expected products loaded")
	}
	if p.Loading() {
		t.Fatalf("loading should be false after refresh")
	}

	failing := NewProducts(&fakeAPI{
		GetProductsFn:   func(context.Context) ([]model.Product, error) { return catalogue, nil },
		GetCategoriesFn: func(context.Context) ([]model.Category, error) { return nil, errors.New("down") },
	})
	if err := failing.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if failing.Err() == nil || failing.Loading() {
		t.Fatalf("expected error recorded and loading false")
	}
}

func TestRefreshRecordsFirstFailure(t *testing.T) {
	productsErr := errors.New("products backend down")
	p := NewProducts(&fakeAPI{
		GetProductsFn: func(context.Context) ([]model.Product, error) { return nil, productsErr },
		GetCategoriesFn: func(ctx context.Context) ([]model.Category, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	if err := p.Refresh(context.Background()); !errors.Is(err, productsErr) {
		t.Fatalf("Refresh returned %v, want %v", err, productsErr)
	}
	if !errors.Is(p.Err(), productsErr) {
		t.Fatalf("Err() = %v, want %v", p.Err(), productsErr)
	}
	if p.Loading() {
		t.Fatalf("loading should be false after refresh")
	}
}
