package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"healthstore/httpclient"
	"healthstore/model"
	"healthstore/ui"
)

var (
	listCategory int64
	listSearch   string
	listPage     int

	productName        string
	productDescription string
	productPrice       float64
	productStock       int
	productCategory    int64
	productImage       string

	categoryName        string
	categoryDescription string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse and manage the catalogue",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, optionally filtered by category and search text",
	RunE:  runProductsList,
}

var productsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsShow,
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product (admin)",
	RunE:  runProductsCreate,
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a product (admin); unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsUpdate,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsDelete,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Browse and manage categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE:  runCategoriesList,
}

var categoriesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a category (admin)",
	RunE:  runCategoriesCreate,
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a category (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesDelete,
}

func init() {
	productsListCmd.Flags().Int64Var(&listCategory, "category", 0, "category id (0 = all)")
	productsListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive match on name or description")
	productsListCmd.Flags().IntVar(&listPage, "page", 1, "page number")

	for _, c := range []*cobra.Command{productsCreateCmd, productsUpdateCmd} {
		c.Flags().StringVar(&productName, "name", "", "product name")
		c.Flags().StringVar(&productDescription, "description", "", "description")
		c.Flags().Float64Var(&productPrice, "price", 0, "unit price")
		c.Flags().IntVar(&productStock, "stock", 0, "units in stock")
		c.Flags().Int64Var(&productCategory, "category", 0, "category id")
		c.Flags().StringVar(&productImage, "image", "", "image file to upload")
	}
	_ = productsCreateCmd.MarkFlagRequired("name")

	categoriesCreateCmd.Flags().StringVar(&categoryName, "name", "", "category name")
	categoriesCreateCmd.Flags().StringVar(&categoryDescription, "description", "", "description")
	_ = categoriesCreateCmd.MarkFlagRequired("name")

	productsCmd.AddCommand(productsListCmd, productsShowCmd, productsCreateCmd, productsUpdateCmd, productsDeleteCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesCreateCmd, categoriesDeleteCmd)
	rootCmd.AddCommand(productsCmd, categoriesCmd)
}

// page returns the 1-based page p of items.
func page[T any](items []T, p, size int) []T {
	if size <= 0 {
		return items
	}
	if p < 1 {
		p = 1
	}
	start := (p - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func runProductsList(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.run(cmd, "", a.products.Refresh); err != nil {
		return err
	}
	a.products.SetSelectedCategory(listCategory)
	a.products.SetSearchQuery(listSearch)

	all := a.products.FilteredProducts()
	size := a.cfg.UI.PageSize
	a.print(renderProducts(page(all, listPage, size)))
	if size > 0 && len(all) > size {
		pages := (len(all) + size - 1) / size
		a.print(dimStyle.Render(fmt.Sprintf("page %d of %d (%d products)", listPage, pages, len(all))))
	}
	return nil
}

func runProductsShow(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var p model.Product
	if err := a.run(cmd, "", func(ctx context.Context) error {
		var err error
		p, err = a.products.FetchProduct(ctx, id)
		return err
	}); err != nil {
		return err
	}
	a.print(renderProduct(p))
	return nil
}

func productImageFile() (*httpclient.File, error) {
	if productImage == "" {
		return nil, nil
	}
	return httpclient.OpenFile(productImage)
}

func runProductsCreate(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	img, err := productImageFile()
	if err != nil {
		return err
	}
	in := model.ProductInput{
		Name:        productName,
		Description: productDescription,
		Price:       productPrice,
		Stock:       productStock,
		CategoryID:  productCategory,
	}
	var p model.Product
	if err := a.run(cmd, "Product created", func(ctx context.Context) error {
		var err error
		p, err = a.products.CreateProduct(ctx, in, img)
		return err
	}); err != nil {
		return err
	}
	a.print(renderProduct(p))
	return nil
}

func runProductsUpdate(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	img, err := productImageFile()
	if err != nil {
		return err
	}

	var p model.Product
	err = a.run(cmd, "Product updated", func(ctx context.Context) error {
		cur, err := a.products.FetchProduct(ctx, id)
		if err != nil {
			return err
		}
		in := model.ProductInput{
			Name:        cur.Name,
			Description: cur.Description,
			Price:       cur.Price,
			Stock:       cur.Stock,
			CategoryID:  cur.CategoryID,
		}
		f := cmd.Flags()
		if f.Changed("name") {
			in.Name = productName
		}
		if f.Changed("description") {
			in.Description = productDescription
		}
		if f.Changed("price") {
			in.Price = productPrice
		}
		if f.Changed("stock") {
			in.Stock = productStock
		}
		if f.Changed("category") {
			in.CategoryID = productCategory
		}
		p, err = a.products.UpdateProduct(ctx, id, in, img)
		return err
	})
	if err != nil {
		return err
	}
	a.print(renderProduct(p))
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(cmd, ui.ConfirmOptions{
		Title:       "Delete Product",
		Message:     fmt.Sprintf("Delete product #%d? This cannot be undone.", id),
		ConfirmText: "Delete",
	})
	if err != nil || !ok {
		return err
	}
	return a.run(cmd, "Product deleted", func(ctx context.Context) error {
		return a.products.DeleteProduct(ctx, id)
	})
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.run(cmd, "", func(ctx context.Context) error {
		_, err := a.products.FetchCategories(ctx)
		return err
	}); err != nil {
		return err
	}
	a.print(renderCategories(a.products.Categories()))
	return nil
}

func runCategoriesCreate(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return a.run(cmd, "Category created", func(ctx context.Context) error {
		_, err := a.api.CreateCategory(ctx, model.CategoryInput{Name: categoryName, Description: categoryDescription})
		return err
	})
}

func runCategoriesDelete(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(cmd, ui.ConfirmOptions{
		Title:       "Delete Category",
		Message:     fmt.Sprintf("Delete category #%d?", id),
		ConfirmText: "Delete",
	})
	if err != nil || !ok {
		return err
	}
	return a.run(cmd, "Category deleted", func(ctx context.Context) error {
		return a.api.DeleteCategory(ctx, id)
	})
}
