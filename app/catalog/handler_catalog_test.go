package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madetoorder/storefront/models"
)

// --- Mock Catalog ---

type MockCatalog struct {
	Products    []models.Product
	Categories  map[uint]*models.CategorySummary
	LastFilters *models.ProductFilters
	LastTerm    *string
	JoinCalls   int
}

func (m *MockCatalog) FilterProducts(filters models.ProductFilters) []models.Product {
	m.LastFilters = &filters
	return m.Products
}

func (m *MockCatalog) SearchProducts(term string) []models.Product {
	m.LastTerm = &term
	if strings.TrimSpace(term) == "" {
		return []models.Product{}
	}
	return m.Products
}

func (m *MockCatalog) ProductsWithCategory() []models.ProductWithCategory {
	m.JoinCalls++
	out := make([]models.ProductWithCategory, len(m.Products))
	for i, p := range m.Products {
		out[i] = models.ProductWithCategory{Product: p, Category: m.Categories[p.CategoryID]}
	}
	return out
}

func (m *MockCatalog) CategoryOf(categoryID uint) *models.CategorySummary {
	return m.Categories[categoryID]
}

func mockCatalog() *MockCatalog {
	return &MockCatalog{
		Products: []models.Product{
			{ID: 10, Name: "Coffee Mug", Price: decimal.RequireFromString("12.50"), CategoryID: 1, IsActive: true},
			{ID: 13, Name: "Orphan", Price: decimal.RequireFromString("5"), CategoryID: 99},
		},
		Categories: map[uint]*models.CategorySummary{
			1: {ID: 1, Name: "Mugs"},
		},
	}
}

func serve(h *CatalogHandler, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/catalog", h.MountRoutes)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// --- Tests: GET /catalog ---

func TestHandleGet(t *testing.T) {
	testCases := []struct {
		name          string
		url           string
		checkFilters  func(t *testing.T, f models.ProductFilters)
		checkResponse func(t *testing.T, resp Response)
	}{
		{
			name: "No filters",
			url:  "/catalog/",
			checkFilters: func(t *testing.T, f models.ProductFilters) {
				assert.Nil(t, f.CategoryID)
				assert.Nil(t, f.PriceLessThan)
				assert.False(t, f.ActiveOnly)
				assert.Empty(t, f.Search)
			},
			checkResponse: func(t *testing.T, resp Response) {
				assert.Equal(t, 2, resp.Total)
				require.Len(t, resp.Products, 2)
				assert.Equal(t, 12.5, resp.Products[0].Price)
				require.NotNil(t, resp.Products[0].Category)
				assert.Equal(t, "Mugs", resp.Products[0].Category.Name)
				assert.Nil(t, resp.Products[1].Category)
			},
		},
		{
			name: "All filters",
			url:  "/catalog/?category=1&price_lt=20.5&active=true&q=mug",
			checkFilters: func(t *testing.T, f models.ProductFilters) {
				require.NotNil(t, f.CategoryID)
				assert.Equal(t, uint(1), *f.CategoryID)
				require.NotNil(t, f.PriceLessThan)
				assert.True(t, f.PriceLessThan.Equal(decimal.RequireFromString("20.5")))
				assert.True(t, f.ActiveOnly)
				assert.Equal(t, "mug", f.Search)
			},
		},
		{
			name: "Malformed filters are ignored",
			url:  "/catalog/?category=abc&price_lt=cheap&active=maybe",
			checkFilters: func(t *testing.T, f models.ProductFilters) {
				assert.Nil(t, f.CategoryID)
				assert.Nil(t, f.PriceLessThan)
				assert.False(t, f.ActiveOnly)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := mockCatalog()
			h := NewCatalogHandler(&MockProductStore{}, catalog, nil)

			rec := serve(h, http.MethodGet, tc.url, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, catalog.LastFilters)
			tc.checkFilters(t, *catalog.LastFilters)
			if tc.checkResponse != nil {
				var resp Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				tc.checkResponse(t, resp)
			}
		})
	}
}

// --- Tests: GET /catalog/search ---

func TestHandleSearch(t *testing.T) {
	testCases := []struct {
		name          string
		url           string
		expectedTotal int
	}{
		{"Matching term", "/catalog/search?q=mug", 2},
		{"Blank term", "/catalog/search?q=%20%20", 0},
		{"Missing term", "/catalog/search", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCatalogHandler(&MockProductStore{}, mockCatalog(), nil)

			rec := serve(h, http.MethodGet, tc.url, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.expectedTotal, resp.Total)
			assert.NotNil(t, resp.Products)
		})
	}
}
