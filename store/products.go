package store

import (
	"context"

	"github.com/madetoorder/storefront/models"
)

// ProductRemote is the remote access boundary for products.
type ProductRemote interface {
	Remote[models.Product, models.ProductInput, models.ProductUpdate]
	FetchWithCategory(ctx context.Context, id uint) (models.ProductWithCategory, error)
}

var _ ProductRemote = (*models.ProductsRepository)(nil)

// ProductStore is the session-wide product collection.
type ProductStore struct {
	*Store[models.Product, models.ProductInput, models.ProductUpdate]
	remote ProductRemote
}

func NewProductStore(remote ProductRemote, opts Options) *ProductStore {
	if opts.Name == "" {
		opts.Name = "products"
	}
	return &ProductStore{
		Store:  New[models.Product, models.ProductInput, models.ProductUpdate](remote, opts),
		remote: remote,
	}
}

// GetWithRelated reads a product with its category summary from the remote
// store. The local collections are not modified.
func (s *ProductStore) GetWithRelated(ctx context.Context, id uint) (models.ProductWithCategory, error) {
	var out models.ProductWithCategory
	err := s.passThrough(ctx, "get_with_related", func(ctx context.Context) (err error) {
		out, err = s.remote.FetchWithCategory(ctx, id)
		return err
	})
	return out, err
}
