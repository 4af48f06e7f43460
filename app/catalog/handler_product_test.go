package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madetoorder/storefront/app/httpx"
	"github.com/madetoorder/storefront/models"
)

// --- Mock Store ---

type MockProductStore struct {
	Related   models.ProductWithCategory
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error

	LastCreated *models.ProductInput
	LastUpdated *models.ProductUpdate
	LastID      uint
}

func (m *MockProductStore) GetWithRelated(_ context.Context, id uint) (models.ProductWithCategory, error) {
	m.LastID = id
	if m.GetErr != nil {
		return models.ProductWithCategory{}, m.GetErr
	}
	return m.Related, nil
}

func (m *MockProductStore) Create(_ context.Context, in models.ProductInput) (models.Product, error) {
	m.LastCreated = &in
	if m.CreateErr != nil {
		return models.Product{}, m.CreateErr
	}
	return models.Product{ID: 10, Name: in.Name, Price: in.Price, CategoryID: in.CategoryID}, nil
}

func (m *MockProductStore) Update(_ context.Context, id uint, in models.ProductUpdate) (models.Product, error) {
	m.LastID = id
	m.LastUpdated = &in
	if m.UpdateErr != nil {
		return models.Product{}, m.UpdateErr
	}
	p := models.Product{ID: id, Name: "Coffee Mug", Price: decimal.NewFromInt(12), CategoryID: 1}
	if in.Price != nil {
		p.Price = *in.Price
	}
	return p, nil
}

func (m *MockProductStore) Delete(_ context.Context, id uint) error {
	m.LastID = id
	return m.DeleteErr
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

// --- Tests: GET /catalog/{id} ---

func TestHandleGetProduct(t *testing.T) {
	testCases := []struct {
		name               string
		url                string
		store              *MockProductStore
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with category",
			url:  "/catalog/10",
			store: &MockProductStore{Related: models.ProductWithCategory{
				Product:  models.Product{ID: 10, Name: "Coffee Mug", Price: decimal.RequireFromString("15.50"), CategoryID: 1},
				Category: &models.CategorySummary{ID: 1, Name: "Mugs"},
			}},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 15.5, resp.Price)
				require.NotNil(t, resp.Category)
				assert.Equal(t, "Mugs", resp.Category.Name)
			},
		},
		{
			name: "Dangling category",
			url:  "/catalog/11",
			store: &MockProductStore{Related: models.ProductWithCategory{
				Product: models.Product{ID: 11, Name: "Orphan", CategoryID: 99},
			}},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Nil(t, resp.Category)
				assert.Equal(t, uint(99), resp.CategoryID)
			},
		},
		{
			name:               "Invalid id",
			url:                "/catalog/0",
			store:              &MockProductStore{},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid product ID", errorBody(t, rec))
			},
		},
		{
			name:               "Not found",
			url:                "/catalog/404",
			store:              &MockProductStore{GetErr: fmt.Errorf("products fetch_with_category: %w", models.ErrProductNotFound)},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", errorBody(t, rec))
			},
		},
		{
			name:               "Remote failure",
			url:                "/catalog/10",
			store:              &MockProductStore{GetErr: errors.New("context deadline exceeded")},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Failed to load product", errorBody(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCatalogHandler(tc.store, mockCatalog(), nil)
			rec := serve(h, http.MethodGet, tc.url, "")

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			tc.checkResponse(t, rec)
		})
	}
}

// --- Tests: POST /catalog ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		store              *MockProductStore
		expectedStatusCode int
		expectedError      string
	}{
		{
			name:               "Success",
			requestBody:        `{"name":"Coffee Mug","description":"350ml","price":12.5,"stock":3,"category_id":1,"is_active":true}`,
			store:              &MockProductStore{},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "Price as string",
			requestBody:        `{"name":"Coffee Mug","description":"350ml","price":"12.50","category_id":1}`,
			store:              &MockProductStore{},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "Invalid JSON",
			requestBody:        `not json`,
			store:              &MockProductStore{},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "Invalid JSON body",
		},
		{
			name:               "Validation failure",
			requestBody:        `{"name":"Coffee Mug","description":"350ml","price":0,"category_id":1}`,
			store:              &MockProductStore{},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "price must be greater than 0",
		},
		{
			name:               "Unknown category",
			requestBody:        `{"name":"Coffee Mug","description":"350ml","price":1,"category_id":77}`,
			store:              &MockProductStore{CreateErr: fmt.Errorf("products create: %w", models.ErrInvalidCategory)},
			expectedStatusCode: http.StatusUnprocessableEntity,
			expectedError:      "Failed to create product",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := mockCatalog()
			h := NewCatalogHandler(tc.store, catalog, nil)
			rec := serve(h, http.MethodPost, "/catalog/", tc.requestBody)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, errorBody(t, rec))
				return
			}
			var resp Product
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "Coffee Mug", resp.Name)
			assert.Equal(t, 12.5, resp.Price)
			require.NotNil(t, tc.store.LastCreated)
			assert.Equal(t, uint(1), tc.store.LastCreated.CategoryID)
			require.NotNil(t, resp.Category)
			assert.Equal(t, "Mugs", resp.Category.Name)
			assert.Zero(t, catalog.JoinCalls)
		})
	}
}

// --- Tests: PUT and DELETE /catalog/{id} ---

func TestHandleUpdate(t *testing.T) {
	store := &MockProductStore{}
	catalog := mockCatalog()
	h := NewCatalogHandler(store, catalog, nil)

	rec := serve(h, http.MethodPut, "/catalog/10", `{"price":"9.90"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 9.9, resp.Price)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "Mugs", resp.Category.Name)
	assert.Zero(t, catalog.JoinCalls)
	require.NotNil(t, store.LastUpdated)
	assert.Nil(t, store.LastUpdated.Name)

	rec = serve(h, http.MethodPut, "/catalog/10", `{"stock":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "stock must be at least 0", errorBody(t, rec))
}

func TestHandleDelete(t *testing.T) {
	testCases := []struct {
		name               string
		store              *MockProductStore
		expectedStatusCode int
	}{
		{"Success", &MockProductStore{}, http.StatusNoContent},
		{"Not found", &MockProductStore{DeleteErr: models.ErrProductNotFound}, http.StatusNotFound},
		{"Remote failure", &MockProductStore{DeleteErr: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCatalogHandler(tc.store, mockCatalog(), nil)
			rec := serve(h, http.MethodDelete, "/catalog/10", "")

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, uint(10), tc.store.LastID)
		})
	}
}
