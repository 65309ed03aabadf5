package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yojanasaar/yojanasaar/internal/service"
)

type MockFilterService struct {
	mock.Mock
}

func (m *MockFilterService) Filters(ctx context.Context) (*service.FilterOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FilterOptions), args.Error(1)
}

func TestMetaHandler_Filters_Success(t *testing.T) {
	mockSvc := new(MockFilterService)
	handler := NewMetaHandler(mockSvc)

	mockSvc.On("Filters", mock.Anything).Return(&service.FilterOptions{
		States:     []string{"Goa", "Kerala"},
		Categories: []string{"Agriculture", "Education"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/meta/filters", nil)
	w := httptest.NewRecorder()

	handler.Filters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].(map[string]interface{})
	states := data["states"].([]interface{})
	assert.Equal(t, []interface{}{"Goa", "Kerala"}, states)
	categories := data["categories"].([]interface{})
	assert.Equal(t, []interface{}{"Agriculture", "Education"}, categories)
	mockSvc.AssertExpectations(t)
}

func TestMetaHandler_Filters_EmptyCatalog(t *testing.T) {
	mockSvc := new(MockFilterService)
	handler := NewMetaHandler(mockSvc)

	mockSvc.On("Filters", mock.Anything).Return(&service.FilterOptions{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/meta/filters", nil)
	w := httptest.NewRecorder()

	handler.Filters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["states"])
	assert.Equal(t, []interface{}{}, data["categories"])
}

func TestMetaHandler_Filters_ServiceError(t *testing.T) {
	mockSvc := new(MockFilterService)
	handler := NewMetaHandler(mockSvc)

	mockSvc.On("Filters", mock.Anything).Return(nil, fmt.Errorf("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/meta/filters", nil)
	w := httptest.NewRecorder()

	handler.Filters(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
