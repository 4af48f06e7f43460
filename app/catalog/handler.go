package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/madetoorder/storefront/app/httpx"
	"github.com/madetoorder/storefront/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Stock          int       `json:"stock"`
	IsActive       bool      `json:"is_active"`
	IsCustomizable bool      `json:"is_customizable"`
	ImageURL       string    `json:"image_url,omitempty"`
	CategoryID     uint      `json:"category_id"`
	Category       *Category `json:"category"`
}

// ProductProvider is the product store as seen by the handlers.
type ProductProvider interface {
	GetWithRelated(ctx context.Context, id uint) (models.ProductWithCategory, error)
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
	Update(ctx context.Context, id uint, in models.ProductUpdate) (models.Product, error)
	Delete(ctx context.Context, id uint) error
}

// CatalogReader provides the locally computed product views.
type CatalogReader interface {
	FilterProducts(filters models.ProductFilters) []models.Product
	SearchProducts(term string) []models.Product
	ProductsWithCategory() []models.ProductWithCategory
	CategoryOf(categoryID uint) *models.CategorySummary
}

type CatalogHandler struct {
	store     ProductProvider
	catalog   CatalogReader
	validator *validator.Validate
	logger    *slog.Logger
}

func NewCatalogHandler(s ProductProvider, c CatalogReader, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		store:     s,
		catalog:   c,
		validator: httpx.NewValidator(),
		logger:    logger,
	}
}

func (h *CatalogHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.HandleGet)
	r.Post("/", h.HandleCreate)
	r.Get("/search", h.HandleSearch)
	r.Get("/{id}", h.HandleGetProduct)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse filters
	var filters models.ProductFilters

	if cStr := r.URL.Query().Get("category"); cStr != "" {
		if id, err := strconv.ParseUint(cStr, 10, 64); err == nil {
			categoryID := uint(id)
			filters.CategoryID = &categoryID
		}
	}

	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := decimal.NewFromString(priceStr); err == nil {
			filters.PriceLessThan = &val
		}
	}

	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filters.ActiveOnly = active
		}
	}

	filters.Search = r.URL.Query().Get("q")

	res := h.catalog.FilterProducts(filters)
	categories := h.categoryIndex()

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p, categories[p.ID])
	}

	httpx.JSON(w, http.StatusOK, Response{
		Total:    len(products),
		Products: products,
	})
}

func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	res := h.catalog.SearchProducts(r.URL.Query().Get("q"))
	categories := h.categoryIndex()

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p, categories[p.ID])
	}

	httpx.JSON(w, http.StatusOK, Response{
		Total:    len(products),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.store.GetWithRelated(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", "error", err, "id", id)
		status := httpx.StatusFor(err)
		if status == http.StatusNotFound {
			httpx.Error(w, status, "Product not found")
			return
		}
		httpx.Error(w, status, "Failed to load product")
		return
	}

	httpx.JSON(w, http.StatusOK, toProduct(product.Product, product.Category))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input models.ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.Struct(input); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}

	product, err := h.store.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create product failed", "error", err)
		httpx.Error(w, httpx.StatusFor(err), "Failed to create product")
		return
	}

	httpx.JSON(w, http.StatusCreated, toProduct(product, h.catalog.CategoryOf(product.CategoryID)))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var input models.ProductUpdate
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.Struct(input); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}

	product, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("update product failed", "error", err, "id", id)
		httpx.Error(w, httpx.StatusFor(err), "Failed to update product")
		return
	}

	httpx.JSON(w, http.StatusOK, toProduct(product, h.catalog.CategoryOf(product.CategoryID)))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete product failed", "error", err, "id", id)
		httpx.Error(w, httpx.StatusFor(err), "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// categoryIndex maps product id to the category resolved from the local
// category collection.
func (h *CatalogHandler) categoryIndex() map[uint]*models.CategorySummary {
	joined := h.catalog.ProductsWithCategory()
	out := make(map[uint]*models.CategorySummary, len(joined))
	for _, p := range joined {
		out[p.ID] = p.Category
	}
	return out
}

func toProduct(p models.Product, c *models.CategorySummary) Product {
	out := Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price.InexactFloat64(),
		Stock:          p.Stock,
		IsActive:       p.IsActive,
		IsCustomizable: p.IsCustomizable,
		ImageURL:       p.ImageURL,
		CategoryID:     p.CategoryID,
	}
	if c != nil {
		out.Category = &Category{ID: c.ID, Name: c.Name}
	}
	return out
}
