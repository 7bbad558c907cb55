package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmateus/vendhub/internal/catalog"
	"github.com/dmateus/vendhub/internal/domain"
)

type CatalogServiceMock struct {
	snap *catalog.Snapshot
	err  error
}

func (m CatalogServiceMock) ListSellable(context.Context) (*catalog.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

func TestGetCatalog_Success(t *testing.T) {
	svcMock := CatalogServiceMock{
		snap: &catalog.Snapshot{
			Products: []domain.Product{
				{ID: "prod_1", Name: "Chips", Price: 2.50, Stock: 4, Position: "A1"},
				{ID: "prod_2", Name: "Soda", Price: 1.75, Stock: 9, Position: "A2"},
			},
			Count:        2,
			TotalFetched: 3,
		},
	}

	handler := NewCatalogHandler(svcMock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/catalog", nil)

	handler.Get(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response catalog.Snapshot
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(response.Products))
	}
	if response.Products[0].ID != "prod_1" {
		t.Errorf("Expected product ID 'prod_1', got '%s'", response.Products[0].ID)
	}
	if response.Products[0].Name != "Chips" {
		t.Errorf("Expected product name 'Chips', got '%s'", response.Products[0].Name)
	}
	if response.Count != 2 {
		t.Errorf("Expected count 2, got %d", response.Count)
	}
	if response.TotalFetched != 3 {
		t.Errorf("Expected totalFetched 3, got %d", response.TotalFetched)
	}
}

func TestGetCatalog_Empty(t *testing.T) {
	svcMock := CatalogServiceMock{
		snap: &catalog.Snapshot{Products: []domain.Product{}},
	}

	handler := NewCatalogHandler(svcMock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/catalog", nil)

	handler.Get(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response catalog.Snapshot
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Products) != 0 {
		t.Errorf("Expected 0 products, got %d", len(response.Products))
	}
}

func TestGetCatalog_Errors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode string
	}{
		{"Unavailable", fmt.Errorf("%w: boom", catalog.ErrCatalogUnavailable), "catalog_unavailable"},
		{"Unknown", errors.New("something else"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCatalogHandler(CatalogServiceMock{err: tt.err}, 5*time.Second)
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest("GET", "/catalog", nil)

			handler.Get(recorder, request)

			if recorder.Code != http.StatusInternalServerError {
				t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, recorder.Code)
			}

			var response ErrorResponse
			json.NewDecoder(recorder.Body).Decode(&response)
			if response.Code != tt.expectedCode {
				t.Errorf("Expected error code '%s', got '%s'", tt.expectedCode, response.Code)
			}
		})
	}
}
