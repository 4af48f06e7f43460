package categories

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/madetoorder/storefront/app/httpx"
	"github.com/madetoorder/storefront/models"
)

type CategoryResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url,omitempty"`
	ProductCount *int   `json:"product_count,omitempty"`
}

type ProductSummary struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	IsActive bool    `json:"is_active"`
}

type CategoryDetailResponse struct {
	CategoryResponse
	Products []ProductSummary `json:"products"`
}

// CategoryProvider is the category store as seen by the handlers.
type CategoryProvider interface {
	GetWithRelated(ctx context.Context, id uint) (models.CategoryWithProducts, error)
	Create(ctx context.Context, in models.CategoryInput) (models.Category, error)
	Update(ctx context.Context, id uint, in models.CategoryUpdate) (models.Category, error)
	Delete(ctx context.Context, id uint) error
}

// CatalogReader provides the derived category views.
type CatalogReader interface {
	CategoriesWithCounts() []models.CategoryWithCount
	ProductsByCategory(categoryID uint) []models.Product
}

type CategoryHandler struct {
	store     CategoryProvider
	catalog   CatalogReader
	validator *validator.Validate
	logger    *slog.Logger
}

func NewCategoryHandler(s CategoryProvider, c CatalogReader, logger *slog.Logger) *CategoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryHandler{store: s, catalog: c, validator: httpx.NewValidator(), logger: logger}
}

func (h *CategoryHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.HandleGetAll)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Get("/{id}/products", h.HandleGetProducts)
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.CategoriesWithCounts()

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		count := c.ProductCount
		response[i] = toResponse(c.Category)
		response[i].ProductCount = &count
	}

	httpx.JSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.store.GetWithRelated(r.Context(), id)
	if err != nil {
		h.logger.Error("get category failed", "error", err, "id", id)
		status := httpx.StatusFor(err)
		if status == http.StatusNotFound {
			httpx.Error(w, status, "Category not found")
			return
		}
		httpx.Error(w, status, "Failed to load category")
		return
	}

	count := len(category.Products)
	response := CategoryDetailResponse{
		CategoryResponse: toResponse(category.Category),
		Products:         toSummaries(category.Products),
	}
	response.ProductCount = &count

	httpx.JSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	httpx.JSON(w, http.StatusOK, toSummaries(h.catalog.ProductsByCategory(id)))
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input models.CategoryInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.Struct(input); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}

	category, err := h.store.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create category failed", "error", err)
		httpx.Error(w, httpx.StatusFor(err), "Failed to create category")
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(category))
}

func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var input models.CategoryUpdate
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.Struct(input); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}

	category, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("update category failed", "error", err, "id", id)
		httpx.Error(w, httpx.StatusFor(err), "Failed to update category")
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(category))
}

func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r)
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete category failed", "error", err, "id", id)
		message := "Failed to delete category"
		var integrity *models.IntegrityError
		if errors.As(err, &integrity) {
			message = integrity.Error()
		}
		httpx.Error(w, httpx.StatusFor(err), message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResponse(c models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
	}
}

func toSummaries(products []models.Product) []ProductSummary {
	out := make([]ProductSummary, len(products))
	for i, p := range products {
		out[i] = ProductSummary{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price.InexactFloat64(),
			Stock:    p.Stock,
			IsActive: p.IsActive,
		}
	}
	return out
}
