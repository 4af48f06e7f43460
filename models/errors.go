package models

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryInUse matches any *IntegrityError under errors.Is.
	ErrCategoryInUse = errors.New("category is referenced by products")
	// ErrInvalidCategory is returned when a product references a category
	// the remote store does not know.
	ErrInvalidCategory = errors.New("product references an unknown category")
)

// IntegrityError is returned when deleting a category that products still reference.
type IntegrityError struct {
	CategoryID uint
	Count      int64
}

func (e *IntegrityError) Error() string {
	noun := "products"
	if e.Count == 1 {
		noun = "product"
	}
	return fmt.Sprintf("cannot delete category %d: %d %s still reference it", e.CategoryID, e.Count, noun)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrCategoryInUse
}

const pgForeignKeyViolation = "23503"

// translateError maps driver level failures onto the package errors.
// notFound is used for gorm.ErrRecordNotFound.
func translateError(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrInvalidCategory, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, pgErr.Message)
	}
	return err
}
