// Package storefront wires the category and product stores and the
// aggregator into one session. A process builds a single Session through
// Open and hands it to its consumers.
package storefront

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/madetoorder/storefront/aggregate"
	"github.com/madetoorder/storefront/models"
	"github.com/madetoorder/storefront/store"
)

// Remotes are the remote access boundaries the session's stores talk to.
type Remotes struct {
	Categories store.CategoryRemote
	Products   store.ProductRemote
}

// RemotesFromDB builds gorm-backed remotes over db.
func RemotesFromDB(db *gorm.DB, logger *slog.Logger) Remotes {
	return Remotes{
		Categories: models.NewCategoriesRepository(db, logger),
		Products:   models.NewProductsRepository(db, logger),
	}
}

type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	Metrics *store.Metrics
}

// Session holds the authoritative stores for one application session.
type Session struct {
	Categories *store.CategoryStore
	Products   *store.ProductStore
	Catalog    *aggregate.Aggregator

	logger *slog.Logger
}

// New builds an unloaded session.
func New(remotes Remotes, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	storeOpts := store.Options{Logger: logger, Timeout: opts.Timeout, Metrics: opts.Metrics}
	categories := store.NewCategoryStore(remotes.Categories, storeOpts)
	products := store.NewProductStore(remotes.Products, storeOpts)
	return &Session{
		Categories: categories,
		Products:   products,
		Catalog:    aggregate.New(categories, products),
		logger:     logger,
	}
}

// Open builds a session and runs the initial load of both stores. A failed
// initial load does not prevent use of the session: the failure is logged
// and remains visible through the store's Err.
func Open(ctx context.Context, remotes Remotes, opts Options) *Session {
	s := New(remotes, opts)
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("initial catalog load incomplete", "error", err)
	}
	return s
}

// Load reloads both stores concurrently. One store failing does not stop the
// other; the first error is returned.
func (s *Session) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Categories.Load(ctx) })
	g.Go(func() error { return s.Products.Load(ctx) })
	return g.Wait()
}
