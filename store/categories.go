package store

import (
	"context"

	"github.com/madetoorder/storefront/models"
)

// CategoryRemote is the remote access boundary for categories.
type CategoryRemote interface {
	Remote[models.Category, models.CategoryInput, models.CategoryUpdate]
	FetchWithProducts(ctx context.Context, id uint) (models.CategoryWithProducts, error)
}

var _ CategoryRemote = (*models.CategoriesRepository)(nil)

// CategoryStore is the session-wide category collection.
type CategoryStore struct {
	*Store[models.Category, models.CategoryInput, models.CategoryUpdate]
	remote CategoryRemote
}

func NewCategoryStore(remote CategoryRemote, opts Options) *CategoryStore {
	if opts.Name == "" {
		opts.Name = "categories"
	}
	return &CategoryStore{
		Store:  New[models.Category, models.CategoryInput, models.CategoryUpdate](remote, opts),
		remote: remote,
	}
}

// GetWithRelated reads a category and its products from the remote store.
// The local collections are not modified.
func (s *CategoryStore) GetWithRelated(ctx context.Context, id uint) (models.CategoryWithProducts, error) {
	var out models.CategoryWithProducts
	err := s.passThrough(ctx, "get_with_related", func(ctx context.Context) (err error) {
		out, err = s.remote.FetchWithProducts(ctx, id)
		return err
	})
	return out, err
}
