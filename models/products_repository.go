package models

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

// ProductsRepository issues product operations against the remote store.
// It keeps no state between calls.
type ProductsRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewProductsRepository(db *gorm.DB, logger *slog.Logger) *ProductsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductsRepository{
		db:     db,
		logger: logger.With("repository", "products"),
	}
}

// FetchAll returns every product ordered by id.
func (r *ProductsRepository) FetchAll(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, r.fail(ctx, "fetch_all", 0, err)
	}
	return products, nil
}

// FetchAllWithCategory returns every product ordered by id with its category summary joined in.
func (r *ProductsRepository) FetchAllWithCategory(ctx context.Context) ([]ProductWithCategory, error) {
	var products []ProductWithCategory
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, r.fail(ctx, "fetch_all_with_category", 0, err)
	}
	return products, nil
}

func (r *ProductsRepository) FetchByID(ctx context.Context, id uint) (Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return Product{}, r.fail(ctx, "fetch_by_id", id, err)
	}
	return product, nil
}

// FetchWithCategory returns a single product with its category summary.
func (r *ProductsRepository) FetchWithCategory(ctx context.Context, id uint) (ProductWithCategory, error) {
	var product ProductWithCategory
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return ProductWithCategory{}, r.fail(ctx, "fetch_with_category", id, err)
	}
	return product, nil
}

func (r *ProductsRepository) FetchByCategory(ctx context.Context, categoryID uint) ([]Product, error) {
	return r.FetchByFilter(ctx, ProductFilters{CategoryID: &categoryID})
}

// Search matches term case-insensitively against name and description.
func (r *ProductsRepository) Search(ctx context.Context, term string) ([]Product, error) {
	return r.FetchByFilter(ctx, ProductFilters{Search: term})
}

func (r *ProductsRepository) FetchByFilter(ctx context.Context, filters ProductFilters) ([]Product, error) {
	var products []Product
	query := r.db.WithContext(ctx).Model(&Product{})

	// Filter
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("price < ?", *filters.PriceLessThan)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		pattern := likePattern(term)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		return nil, r.fail(ctx, "fetch_by_filter", 0, err)
	}
	return products, nil
}

// Create inserts a product and returns it with its assigned id.
func (r *ProductsRepository) Create(ctx context.Context, in ProductInput) (Product, error) {
	product := in.product()
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		return Product{}, r.fail(ctx, "create", 0, err)
	}
	return product, nil
}

// Update applies the non-nil fields of in and returns the full stored row.
func (r *ProductsRepository) Update(ctx context.Context, id uint, in ProductUpdate) (Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cols := in.columns(); len(cols) > 0 {
			res := tx.Model(&Product{}).Where("id = ?", id).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrProductNotFound
			}
		}
		return tx.Where("id = ?", id).First(&product).Error
	})
	if err != nil {
		return Product{}, r.fail(ctx, "update", id, err)
	}
	return product, nil
}

func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if res.Error != nil {
		return r.fail(ctx, "delete", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.fail(ctx, "delete", id, ErrProductNotFound)
	}
	return nil
}

func (r *ProductsRepository) fail(ctx context.Context, op string, id uint, err error) error {
	err = translateError(err, ErrProductNotFound)
	r.logger.WarnContext(ctx, "product operation failed", "op", op, "id", id, "error", err)
	return fmt.Errorf("products %s: %w", op, err)
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}
