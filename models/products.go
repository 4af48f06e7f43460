package models

import (
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// It references its category by ID only; category data is owned by the
// category collection.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"not null"`
	Description    string          `gorm:"not null"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock          int             `gorm:"not null"`
	CategoryID     uint            `gorm:"not null;index"`
	IsActive       bool            `gorm:"not null"`
	IsCustomizable bool            `gorm:"not null"`
	ImageURL       string
}

func (p *Product) TableName() string {
	return "products"
}

// GetID returns the stable identifier of the product.
func (p Product) GetID() uint {
	return p.ID
}

// ProductWithCategory is the enriched view of a product fetched with its
// category joined in. Category is nil when the reference does not resolve.
type ProductWithCategory struct {
	Product
	Category *CategorySummary `gorm:"foreignKey:CategoryID"`
}

// ProductInput is the payload used to create a product.
type ProductInput struct {
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description" validate:"required"`
	Price          decimal.Decimal `json:"price" validate:"gt=0"`
	Stock          int             `json:"stock" validate:"gte=0"`
	CategoryID     uint            `json:"category_id" validate:"required"`
	IsActive       bool            `json:"is_active"`
	IsCustomizable bool            `json:"is_customizable"`
	ImageURL       string          `json:"image_url" validate:"omitempty,uri"`
}

func (in ProductInput) product() Product {
	return Product{
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Stock:          in.Stock,
		CategoryID:     in.CategoryID,
		IsActive:       in.IsActive,
		IsCustomizable: in.IsCustomizable,
		ImageURL:       in.ImageURL,
	}
}

// ProductUpdate is a partial product payload; nil fields are left untouched.
type ProductUpdate struct {
	Name           *string          `json:"name" validate:"omitnil,min=1"`
	Description    *string          `json:"description" validate:"omitnil,min=1"`
	Price          *decimal.Decimal `json:"price" validate:"omitnil,gt=0"`
	Stock          *int             `json:"stock" validate:"omitnil,gte=0"`
	CategoryID     *uint            `json:"category_id" validate:"omitnil,gt=0"`
	IsActive       *bool            `json:"is_active"`
	IsCustomizable *bool            `json:"is_customizable"`
	ImageURL       *string          `json:"image_url" validate:"omitempty,uri"`
}

func (u ProductUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.Stock != nil {
		cols["stock"] = *u.Stock
	}
	if u.CategoryID != nil {
		cols["category_id"] = *u.CategoryID
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	if u.IsCustomizable != nil {
		cols["is_customizable"] = *u.IsCustomizable
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	return cols
}

// ProductFilters narrows a product listing.
type ProductFilters struct {
	CategoryID    *uint
	PriceLessThan *decimal.Decimal
	ActiveOnly    bool
	Search        string
}
