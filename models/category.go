package models

// Category represents a product category.
// Its ID is assigned by the remote store and never changes.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	ImageURL    string
}

func (c *Category) TableName() string {
	return "categories"
}

// GetID returns the stable identifier of the category.
func (c Category) GetID() uint {
	return c.ID
}

// CategorySummary is the denormalized category data attached to a product
// fetched with a join. It is never the source of truth for category data.
type CategorySummary struct {
	ID   uint
	Name string
}

func (c *CategorySummary) TableName() string {
	return "categories"
}

// CategoryWithCount is a category augmented with the number of products
// referencing it at query time.
type CategoryWithCount struct {
	Category
	ProductCount int
}

// CategoryWithProducts is a category together with the products referencing it.
type CategoryWithProducts struct {
	Category
	Products []Product
}

// CategoryInput is the payload used to create a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,uri"`
}

// CategoryUpdate is a partial category payload; nil fields are left untouched.
type CategoryUpdate struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,uri"`
}

func (u CategoryUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	return cols
}
