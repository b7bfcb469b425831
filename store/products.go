package store

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"healthstore/httpclient"
	"healthstore/model"
)

// Products mirrors the catalogue plus the client-side filter inputs.
type Products struct {
	state

	api ProductsAPI

	productsGen   generation
	categoriesGen generation

	products         []model.Product
	categories       []model.Category
	selectedCategory int64
	searchQuery      string
}

func NewProducts(api ProductsAPI) *Products {
	return &Products{api: api}
}

func (p *Products) FetchProducts(ctx context.Context) ([]model.Product, error) {
	release := p.begin()
	defer release()
	return p.fetchProducts(ctx)
}

func (p *Products) fetchProducts(ctx context.Context) ([]model.Product, error) {
	p.mu.Lock()
	id := p.productsGen.next()
	p.mu.Unlock()

	data, err := p.api.GetProducts(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.productsGen.isLatest(id) {
		return data, err
	}
	if err != nil {
		p.err = err
		return nil, err
	}
	p.products = data
	return data, nil
}

// FetchProduct loads one product without touching the list.
func (p *Products) FetchProduct(ctx context.Context, id int64) (model.Product, error) {
	release := p.begin()
	defer release()

	data, err := p.api.GetProduct(ctx, id)
	if err != nil {
		return data, p.fail(err)
	}
	return data, nil
}

// FetchCategories loads the category list. It records failures but does
// not toggle loading.
func (p *Products) FetchCategories(ctx context.Context) ([]model.Category, error) {
	p.mu.Lock()
	id := p.categoriesGen.next()
	p.mu.Unlock()

	data, err := p.api.GetCategories(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.categoriesGen.isLatest(id) {
		return data, err
	}
	if err != nil {
		p.err = err
		return nil, err
	}
	p.categories = data
	return data, nil
}

// Refresh loads products and categories concurrently. The first failure
// cancels the other fetch and is the error recorded.
func (p *Products) Refresh(ctx context.Context) error {
	release := p.begin()
	defer release()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.fetchProducts(gctx)
		return err
	})
	g.Go(func() error {
		_, err := p.FetchCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *Products) CreateProduct(ctx context.Context, in model.ProductInput, image *httpclient.File) (model.Product, error) {
	release := p.begin()
	defer release()

	if err := model.ValidateProduct(in); err != nil {
		return model.Product{}, p.fail(err)
	}
	data, err := p.api.CreateProduct(ctx, in, image)
	if err != nil {
		return data, p.fail(err)
	}
	if _, err := p.fetchProducts(ctx); err != nil {
		return data, err
	}
	return data, nil
}

func (p *Products) UpdateProduct(ctx context.Context, id int64, in model.ProductInput, image *httpclient.File) (model.Product, error) {
	release := p.begin()
	defer release()

	if err := model.ValidateProduct(in); err != nil {
		return model.Product{}, p.fail(err)
	}
	data, err := p.api.UpdateProduct(ctx, id, in, image)
	if err != nil {
		return data, p.fail(err)
	}
	if _, err := p.fetchProducts(ctx); err != nil {
		return data, err
	}
	return data, nil
}

func (p *Products) DeleteProduct(ctx context.Context, id int64) error {
	release := p.begin()
	defer release()

	if err := p.api.DeleteProduct(ctx, id); err != nil {
		return p.fail(err)
	}
	_, err := p.fetchProducts(ctx)
	return err
}

// SetSelectedCategory filters by category; 0 clears the filter.
func (p *Products) SetSelectedCategory(id int64) {
	p.mu.Lock()
	p.selectedCategory = id
	p.mu.Unlock()
}

func (p *Products) SetSearchQuery(q string) {
	p.mu.Lock()
	p.searchQuery = q
	p.mu.Unlock()
}

func (p *Products) Products() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Product(nil), p.products...)
}

func (p *Products) Categories() []model.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Category(nil), p.categories...)
}

// FilteredProducts applies the category and search filters together. The
// search is a case-insensitive substring match on name or description.
func (p *Products) FilteredProducts() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return filterProducts(p.products, p.selectedCategory, p.searchQuery)
}

func filterProducts(products []model.Product, category int64, query string) []model.Product {
	q := strings.ToLower(query)
	out := []model.Product{}
	for _, pr := range products {
		if category != 0 && pr.CategoryID != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(pr.Name), q) &&
			!strings.Contains(strings.ToLower(pr.Description), q) {
			continue
		}
		out = append(out, pr)
	}
	return out
}
