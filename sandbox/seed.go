package sandbox

import (
	"fmt"

	"healthstore/model"
)

const (
	SeedAdminUsername = "admin"
	SeedAdminPassword = "admin123"
)

var seedCategories = []model.CategoryInput{
	{Name: "Vitamins", Description: "Daily vitamins and minerals"},
	{Name: "Organic Food", Description: "Certified organic groceries"},
	{Name: "Fitness", Description: "Sports nutrition and gear"},
}

var seedProducts = []model.ProductInput{
	{Name: "Vitamin C 1000mg", Description: "Immune support tablets", Price: 12.99, Stock: 50, CategoryID: 1},
	{Name: "Omega-3 Fish Oil", Description: "Heart health softgels", Price: 18.50, Stock: 40, CategoryID: 1},
	{Name: "Organic Quinoa", Description: "Whole grain, 1kg", Price: 7.25, Stock: 100, CategoryID: 2},
	{Name: "Green Vegetable Mix", Description: "Freeze-dried veggie powder", Price: 15.00, Stock: 25, CategoryID: 2},
	{Name: "Whey Protein", Description: "Vanilla, 2kg", Price: 39.90, Stock: 15, CategoryID: 3},
	{Name: "Yoga Mat", Description: "Non-slip, 6mm", Price: 24.00, Stock: 10, CategoryID: 3},
}

// Seed loads the admin account plus a small catalogue.
func (s *Service) Seed() error {
	if _, err := s.addUser(SeedAdminUsername, "admin@healthstore.local", SeedAdminPassword, model.RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	for _, c := range seedCategories {
		if _, err := s.CreateCategory(c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	for _, p := range seedProducts {
		if _, err := s.CreateProduct(p, ""); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
	}
	return nil
}
