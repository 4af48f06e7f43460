package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

// CategoriesRepository issues category operations against the remote store.
type CategoriesRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCategoriesRepository(db *gorm.DB, logger *slog.Logger) *CategoriesRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoriesRepository{
		db:     db,
		logger: logger.With("repository", "categories"),
	}
}

// FetchAll returns every category ordered by id.
func (r *CategoriesRepository) FetchAll(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&categories).Error; err != nil {
		return nil, r.fail(ctx, "fetch_all", 0, err)
	}
	return categories, nil
}

func (r *CategoriesRepository) FetchByID(ctx context.Context, id uint) (Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error; err != nil {
		return Category{}, r.fail(ctx, "fetch_by_id", id, err)
	}
	return category, nil
}

// FetchWithProducts returns the category and the products referencing it, ordered by id.
func (r *CategoriesRepository) FetchWithProducts(ctx context.Context, id uint) (CategoryWithProducts, error) {
	var out CategoryWithProducts
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out.Category).Error; err != nil {
			return err
		}
		return tx.Where("category_id = ?", id).Order("id ASC").Find(&out.Products).Error
	})
	if err != nil {
		return CategoryWithProducts{}, r.fail(ctx, "fetch_with_products", id, err)
	}
	return out, nil
}

// Search matches term case-insensitively against the category name.
func (r *CategoriesRepository) Search(ctx context.Context, term string) ([]Category, error) {
	var categories []Category
	query := r.db.WithContext(ctx).Model(&Category{})
	if term = strings.TrimSpace(term); term != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(term))
	}
	if err := query.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, r.fail(ctx, "search", 0, err)
	}
	return categories, nil
}

// CountProducts counts the products referencing the category.
func (r *CategoriesRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("category_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, r.fail(ctx, "count_products", id, err)
	}
	return count, nil
}

// Create inserts a category and returns it with its assigned id.
func (r *CategoriesRepository) Create(ctx context.Context, in CategoryInput) (Category, error) {
	category := Category{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return Category{}, r.fail(ctx, "create", 0, err)
	}
	return category, nil
}

// Update applies the non-nil fields of in and returns the full stored row.
func (r *CategoriesRepository) Update(ctx context.Context, id uint, in CategoryUpdate) (Category, error) {
	var category Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cols := in.columns(); len(cols) > 0 {
			res := tx.Model(&Category{}).Where("id = ?", id).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrCategoryNotFound
			}
		}
		return tx.Where("id = ?", id).First(&category).Error
	})
	if err != nil {
		return Category{}, r.fail(ctx, "update", id, err)
	}
	return category, nil
}

// Delete removes the category unless products still reference it, in which
// case an *IntegrityError is returned and nothing is deleted.
func (r *CategoriesRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &IntegrityError{CategoryID: id, Count: count}
		}
		res := tx.Where("id = ?", id).Delete(&Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
	if err != nil {
		// a product inserted between the count and the delete
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			err = fmt.Errorf("%w: %v", ErrCategoryInUse, err)
		}
		return r.fail(ctx, "delete", id, err)
	}
	return nil
}

func (r *CategoriesRepository) fail(ctx context.Context, op string, id uint, err error) error {
	err = translateError(err, ErrCategoryNotFound)
	r.logger.WarnContext(ctx, "category operation failed", "op", op, "id", id, "error", err)
	return fmt.Errorf("categories %s: %w", op, err)
}
