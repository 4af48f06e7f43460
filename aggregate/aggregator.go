// Package aggregate computes read-only views that join products to
// categories. Every view is recomputed from the current store contents.
package aggregate

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/madetoorder/storefront/models"
)

// CategoryReader exposes the current category collection.
type CategoryReader interface {
	Items() []models.Category
}

// ProductReader exposes the current product collection.
type ProductReader interface {
	Items() []models.Product
}

// Aggregator derives cross-entity views. It never mutates either store.
type Aggregator struct {
	categories CategoryReader
	products   ProductReader
}

func New(categories CategoryReader, products ProductReader) *Aggregator {
	return &Aggregator{categories: categories, products: products}
}

// ProductCountByCategory counts the products referencing categoryID.
func (a *Aggregator) ProductCountByCategory(categoryID uint) int {
	n := 0
	for _, p := range a.products.Items() {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// ProductsByCategory returns the products referencing categoryID in store order.
func (a *Aggregator) ProductsByCategory(categoryID uint) []models.Product {
	out := []models.Product{}
	for _, p := range a.products.Items() {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// SearchProducts matches term against product name and description, ignoring
// case. A blank term matches nothing.
func (a *Aggregator) SearchProducts(term string) []models.Product {
	out := []models.Product{}
	m := newMatcher(term)
	if m == nil {
		return out
	}
	for _, p := range a.products.Items() {
		if m.match(p.Name) || m.match(p.Description) {
			out = append(out, p)
		}
	}
	return out
}

// CategoriesWithCounts returns every category with its current product count.
// Either store may still be empty; counts are then zero.
func (a *Aggregator) CategoriesWithCounts() []models.CategoryWithCount {
	counts := map[uint]int{}
	for _, p := range a.products.Items() {
		counts[p.CategoryID]++
	}
	categories := a.categories.Items()
	out := make([]models.CategoryWithCount, len(categories))
	for i, c := range categories {
		out[i] = models.CategoryWithCount{Category: c, ProductCount: counts[c.ID]}
	}
	return out
}

// ProductsWithCategory joins every product to its category in the local
// category collection. Products whose category is unknown get a nil Category.
func (a *Aggregator) ProductsWithCategory() []models.ProductWithCategory {
	byID := a.categoryIndex()
	products := a.products.Items()
	out := make([]models.ProductWithCategory, len(products))
	for i, p := range products {
		out[i] = models.ProductWithCategory{Product: p, Category: byID[p.CategoryID]}
	}
	return out
}

// CategoryOf resolves categoryID against the local category collection. It
// returns nil when the category is unknown.
func (a *Aggregator) CategoryOf(categoryID uint) *models.CategorySummary {
	for _, c := range a.categories.Items() {
		if c.ID == categoryID {
			return &models.CategorySummary{ID: c.ID, Name: c.Name}
		}
	}
	return nil
}

// Uncategorized returns the products whose category is not in the local collection.
func (a *Aggregator) Uncategorized() []models.Product {
	byID := a.categoryIndex()
	out := []models.Product{}
	for _, p := range a.products.Items() {
		if _, ok := byID[p.CategoryID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterProducts applies filters to the local product collection. Unlike
// SearchProducts, an empty Search leaves the listing unfiltered.
func (a *Aggregator) FilterProducts(filters models.ProductFilters) []models.Product {
	m := newMatcher(filters.Search)
	out := []models.Product{}
	for _, p := range a.products.Items() {
		if filters.CategoryID != nil && p.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.PriceLessThan != nil && !p.Price.LessThan(*filters.PriceLessThan) {
			continue
		}
		if filters.ActiveOnly && !p.IsActive {
			continue
		}
		if m != nil && !m.match(p.Name) && !m.match(p.Description) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a *Aggregator) categoryIndex() map[uint]*models.CategorySummary {
	categories := a.categories.Items()
	byID := make(map[uint]*models.CategorySummary, len(categories))
	for _, c := range categories {
		byID[c.ID] = &models.CategorySummary{ID: c.ID, Name: c.Name}
	}
	return byID
}

type matcher struct {
	caser  cases.Caser
	folded string
}

// newMatcher returns nil for a blank term.
func newMatcher(term string) *matcher {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	m := &matcher{caser: cases.Fold()}
	m.folded = m.caser.String(term)
	return m
}

func (m *matcher) match(s string) bool {
	return strings.Contains(m.caser.String(s), m.folded)
}
