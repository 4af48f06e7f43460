// Package storetest provides an in-memory remote store for exercising the
// entity stores without a database.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/madetoorder/storefront/models"
	"github.com/madetoorder/storefront/store"
)

var (
	_ store.CategoryRemote = (*Categories)(nil)
	_ store.ProductRemote  = (*Products)(nil)
)

// Operation names accepted by Fail, Panic and After.
const (
	CategoriesFetchAll          = "categories.fetch_all"
	CategoriesFetchByID         = "categories.fetch_by_id"
	CategoriesFetchWithProducts = "categories.fetch_with_products"
	CategoriesCreate            = "categories.create"
	CategoriesUpdate            = "categories.update"
	CategoriesDelete            = "categories.delete"
	ProductsFetchAll            = "products.fetch_all"
	ProductsFetchByID           = "products.fetch_by_id"
	ProductsFetchWithCategory   = "products.fetch_with_category"
	ProductsCreate              = "products.create"
	ProductsUpdate              = "products.update"
	ProductsDelete              = "products.delete"
)

// DB is a tiny relational store holding categories and products. It
// enforces the category reference count on delete like the real remote.
type DB struct {
	mu             sync.Mutex
	nextCategoryID uint
	nextProductID  uint
	categories     map[uint]models.Category
	products       map[uint]models.Product
	failures       map[string][]error
	panics         map[string]any
	after          map[string][]func()
	calls          map[string]int
}

func New() *DB {
	return &DB{
		categories: map[uint]models.Category{},
		products:   map[uint]models.Product{},
		failures:   map[string][]error{},
		panics:     map[string]any{},
		after:      map[string][]func(){},
		calls:      map[string]int{},
	}
}

// SeedCategory stores c, assigning the next id when c.ID is zero.
func (db *DB) SeedCategory(c models.Category) models.Category {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == 0 {
		db.nextCategoryID++
		c.ID = db.nextCategoryID
	} else if c.ID > db.nextCategoryID {
		db.nextCategoryID = c.ID
	}
	db.categories[c.ID] = c
	return c
}

// SeedProduct stores p, assigning the next id when p.ID is zero.
func (db *DB) SeedProduct(p models.Product) models.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == 0 {
		db.nextProductID++
		p.ID = db.nextProductID
	} else if p.ID > db.nextProductID {
		db.nextProductID = p.ID
	}
	db.products[p.ID] = p
	return p
}

// Fail makes the next call of op return err. Calls queue in order.
func (db *DB) Fail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = append(db.failures[op], err)
}

// Panic makes the next call of op panic with v.
func (db *DB) Panic(op string, v any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.panics[op] = v
}

// After runs fn once, on the next call of op, after the result has been
// computed and before it is returned. It models a slow response.
func (db *DB) After(op string, fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.after[op] = append(db.after[op], fn)
}

// Calls reports how many times op was invoked.
func (db *DB) Calls(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

// Categories returns the category remote over db.
func (db *DB) Categories() *Categories {
	return &Categories{db: db}
}

// Products returns the product remote over db.
func (db *DB) Products() *Products {
	return &Products{db: db}
}

// begin records the call and returns the injected failure, if any.
func (db *DB) begin(ctx context.Context, op string) error {
	db.mu.Lock()
	db.calls[op]++
	v, shouldPanic := db.panics[op]
	delete(db.panics, op)
	var err error
	if q := db.failures[op]; len(q) > 0 {
		err = q[0]
		db.failures[op] = q[1:]
	}
	db.mu.Unlock()

	if shouldPanic {
		panic(v)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// end runs the pending After hook for op and reports cancellation.
func (db *DB) end(ctx context.Context, op string) error {
	db.mu.Lock()
	var fn func()
	if q := db.after[op]; len(q) > 0 {
		fn = q[0]
		db.after[op] = q[1:]
	}
	db.mu.Unlock()

	if fn != nil {
		fn()
	}
	return ctx.Err()
}

func (db *DB) sortedCategories() []models.Category {
	out := make([]models.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *DB) sortedProducts(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range db.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Categories implements store.CategoryRemote.
type Categories struct {
	db *DB
}

func (r *Categories) FetchAll(ctx context.Context) ([]models.Category, error) {
	if err := r.db.begin(ctx, CategoriesFetchAll); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	out := r.db.sortedCategories()
	r.db.mu.Unlock()
	if err := r.db.end(ctx, CategoriesFetchAll); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Categories) FetchByID(ctx context.Context, id uint) (models.Category, error) {
	if err := r.db.begin(ctx, CategoriesFetchByID); err != nil {
		return models.Category{}, err
	}
	r.db.mu.Lock()
	c, ok := r.db.categories[id]
	r.db.mu.Unlock()
	if err := r.db.end(ctx, CategoriesFetchByID); err != nil {
		return models.Category{}, err
	}
	if !ok {
		return models.Category{}, models.ErrCategoryNotFound
	}
	return c, nil
}

func (r *Categories) FetchWithProducts(ctx context.Context, id uint) (models.CategoryWithProducts, error) {
	if err := r.db.begin(ctx, CategoriesFetchWithProducts); err != nil {
		return models.CategoryWithProducts{}, err
	}
	r.db.mu.Lock()
	c, ok := r.db.categories[id]
	products := r.db.sortedProducts(func(p models.Product) bool { return p.CategoryID == id })
	r.db.mu.Unlock()
	if err := r.db.end(ctx, CategoriesFetchWithProducts); err != nil {
		return models.CategoryWithProducts{}, err
	}
	if !ok {
		return models.CategoryWithProducts{}, models.ErrCategoryNotFound
	}
	return models.CategoryWithProducts{Category: c, Products: products}, nil
}

func (r *Categories) Create(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	if err := r.db.begin(ctx, CategoriesCreate); err != nil {
		return models.Category{}, err
	}
	c := r.db.SeedCategory(models.Category{Name: in.Name, Description: in.Description, ImageURL: in.ImageURL})
	if err := r.db.end(ctx, CategoriesCreate); err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (r *Categories) Update(ctx context.Context, id uint, in models.CategoryUpdate) (models.Category, error) {
	if err := r.db.begin(ctx, CategoriesUpdate); err != nil {
		return models.Category{}, err
	}
	r.db.mu.Lock()
	c, ok := r.db.categories[id]
	if ok {
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.ImageURL != nil {
			c.ImageURL = *in.ImageURL
		}
		r.db.categories[id] = c
	}
	r.db.mu.Unlock()
	if err := r.db.end(ctx, CategoriesUpdate); err != nil {
		return models.Category{}, err
	}
	if !ok {
		return models.Category{}, models.ErrCategoryNotFound
	}
	return c, nil
}

func (r *Categories) Delete(ctx context.Context, id uint) error {
	if err := r.db.begin(ctx, CategoriesDelete); err != nil {
		return err
	}
	r.db.mu.Lock()
	var count int64
	for _, p := range r.db.products {
		if p.CategoryID == id {
			count++
		}
	}
	_, ok := r.db.categories[id]
	if ok && count == 0 {
		delete(r.db.categories, id)
	}
	r.db.mu.Unlock()
	if err := r.db.end(ctx, CategoriesDelete); err != nil {
		return err
	}
	switch {
	case count > 0:
		return &models.IntegrityError{CategoryID: id, Count: count}
	case !ok:
		return models.ErrCategoryNotFound
	}
	return nil
}

// Products implements store.ProductRemote.
type Products struct {
	db *DB
}

func (r *Products) FetchAll(ctx context.Context) ([]models.Product, error) {
	if err := r.db.begin(ctx, ProductsFetchAll); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	out := r.db.sortedProducts(nil)
	r.db.mu.Unlock()
	if err := r.db.end(ctx, ProductsFetchAll); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Products) FetchByID(ctx context.Context, id uint) (models.Product, error) {
	if err := r.db.begin(ctx, ProductsFetchByID); err != nil {
		return models.Product{}, err
	}
	r.db.mu.Lock()
	p, ok := r.db.products[id]
	r.db.mu.Unlock()
	if err := r.db.end(ctx, ProductsFetchByID); err != nil {
		return models.Product{}, err
	}
	if !ok {
		return models.Product{}, models.ErrProductNotFound
	}
	return p, nil
}

func (r *Products) FetchWithCategory(ctx context.Context, id uint) (models.ProductWithCategory, error) {
	if err := r.db.begin(ctx, ProductsFetchWithCategory); err != nil {
		return models.ProductWithCategory{}, err
	}
	r.db.mu.Lock()
	p, ok := r.db.products[id]
	c, hasCategory := r.db.categories[p.CategoryID]
	r.db.mu.Unlock()
	if err := r.db.end(ctx, ProductsFetchWithCategory); err != nil {
		return models.ProductWithCategory{}, err
	}
	if !ok {
		return models.ProductWithCategory{}, models.ErrProductNotFound
	}
	out := models.ProductWithCategory{Product: p}
	if hasCategory {
		out.Category = &models.CategorySummary{ID: c.ID, Name: c.Name}
	}
	return out, nil
}

func (r *Products) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := r.db.begin(ctx, ProductsCreate); err != nil {
		return models.Product{}, err
	}
	r.db.mu.Lock()
	_, known := r.db.categories[in.CategoryID]
	r.db.mu.Unlock()
	if !known {
		return models.Product{}, fmt.Errorf("%w: category %d", models.ErrInvalidCategory, in.CategoryID)
	}
	p := r.db.SeedProduct(models.Product{
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Stock:          in.Stock,
		CategoryID:     in.CategoryID,
		IsActive:       in.IsActive,
		IsCustomizable: in.IsCustomizable,
		ImageURL:       in.ImageURL,
	})
	if err := r.db.end(ctx, ProductsCreate); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (r *Products) Update(ctx context.Context, id uint, in models.ProductUpdate) (models.Product, error) {
	if err := r.db.begin(ctx, ProductsUpdate); err != nil {
		return models.Product{}, err
	}
	r.db.mu.Lock()
	p, ok := r.db.products[id]
	if ok {
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if in.CategoryID != nil {
			p.CategoryID = *in.CategoryID
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		if in.IsCustomizable != nil {
			p.IsCustomizable = *in.IsCustomizable
		}
		if in.ImageURL != nil {
			p.ImageURL = *in.ImageURL
		}
		r.db.products[id] = p
	}
	r.db.mu.Unlock()
	if err := r.db.end(ctx, ProductsUpdate); err != nil {
		return models.Product{}, err
	}
	if !ok {
		return models.Product{}, models.ErrProductNotFound
	}
	return p, nil
}

func (r *Products) Delete(ctx context.Context, id uint) error {
	if err := r.db.begin(ctx, ProductsDelete); err != nil {
		return err
	}
	r.db.mu.Lock()
	_, ok := r.db.products[id]
	delete(r.db.products, id)
	r.db.mu.Unlock()
	if err := r.db.end(ctx, ProductsDelete); err != nil {
		return err
	}
	if !ok {
		return models.ErrProductNotFound
	}
	return nil
}
