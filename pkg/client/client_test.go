package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

func TestClientListProducts(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"page":        r.URL.Query().Get("page"),
			"per_page":    r.URL.Query().Get("per_page"),
			"search":      r.URL.Query().Get("search"),
			"is_approved": r.URL.Query().Get("is_approved"),
		}
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{"id":"prod-1","sku":"SKU-1","name":"Hex Bolt","is_approved":true,"offer_count":3}],
			"pagination": {"page":2,"page_size":10,"total_count":35,"total_pages":4}
		}`))
	}))
	defer server.Close()

	api := New(Config{BaseURL: server.URL, Token: "token-1"})
	approved := true
	result, err := api.ListProducts(context.Background(), ListQuery{Page: 2, PerPage: 10, Search: "bolt", Approved: &approved})
	require.NoError(t, err)

	assert.Equal(t, "2", gotQuery["page"])
	assert.Equal(t, "10", gotQuery["per_page"])
	assert.Equal(t, "bolt", gotQuery["search"])
	assert.Equal(t, "true", gotQuery["is_approved"])

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Hex Bolt", result.Items[0].Name)
	assert.Equal(t, 2, result.CurrentPage)
	assert.Equal(t, 4, result.LastPage)
	assert.Equal(t, 35, result.Total)
}

func TestClientToggleProductApproval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/products/prod-1/toggle-approval", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"message":"product approved","new_state":true}}`))
	}))
	defer server.Close()

	api := New(Config{BaseURL: server.URL})
	result, err := api.ToggleProductApproval(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "product approved", result.Message)
	assert.True(t, result.NewState)
}

func TestClientSurfacesEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": {"code":"OFFER_REVIEWED","message":"offer already reviewed","status":409}}`))
	}))
	defer server.Close()

	api := New(Config{BaseURL: server.URL})
	err := api.ApproveOffer(context.Background(), "offer-1", "")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOfferReviewed.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestClientMapsBareStatusCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	api := New(Config{BaseURL: server.URL})
	err := api.DeleteProduct(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClientTransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	api := New(Config{BaseURL: server.URL})
	_, err := api.ListProducts(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNetwork.Code, appErr.Code)
}
