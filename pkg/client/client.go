// Package client is a typed SDK for the marketplace admin API built around
// the paginated list-view pattern: value-keyed query state, a cache-aware
// fetcher with keep-previous-data and last-issued-wins semantics, single-shot
// mutations with family invalidation, and a debounced search input.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

// Config carries explicit construction-time settings for the API client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a thin typed wrapper over the admin REST API. Transport failures
// surface as NETWORK_ERROR; server-side errors carry the envelope's own code.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New constructs a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
	}
}

// ProductRow is a catalog row as listed by the admin API.
type ProductRow struct {
	ID           string  `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	CategoryID   string  `json:"category_id"`
	CategoryName *string `json:"category_name,omitempty"`
	Unit         string  `json:"unit"`
	IsApproved   bool    `json:"is_approved"`
	OfferCount   int     `json:"offer_count"`
}

// OfferRow is a supplier-offer row as listed by the admin API.
type OfferRow struct {
	ID           string  `json:"id"`
	SupplierName string  `json:"supplier_name"`
	ProductName  string  `json:"product_name"`
	ProductSKU   string  `json:"product_sku"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
}

type envelope struct {
	Data       json.RawMessage  `json:"data"`
	Error      *appErrors.Error `json:"error"`
	Pagination *paginationMeta  `json:"pagination"`
}

type paginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ListProducts fetches one catalog page.
func (c *Client) ListProducts(ctx context.Context, q ListQuery) (*PageResult[ProductRow], error) {
	return listPage[ProductRow](ctx, c, "/api/v1/products", q)
}

// ListOffers fetches one supplier-offer page.
func (c *Client) ListOffers(ctx context.Context, q ListQuery) (*PageResult[OfferRow], error) {
	return listPage[OfferRow](ctx, c, "/api/v1/offers", q)
}

// ToggleProductApproval flips catalog approval and reports the new state.
func (c *Client) ToggleProductApproval(ctx context.Context, id string) (*MutationResult, error) {
	var result MutationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/products/"+url.PathEscape(id)+"/toggle-approval", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteProduct soft-deletes a catalog entry.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, nil)
}

// ApproveOffer approves a pending offer with an optional note.
func (c *Client) ApproveOffer(ctx context.Context, id, note string) error {
	return c.reviewOffer(ctx, id, "approve", note)
}

// RejectOffer rejects a pending offer with an optional note.
func (c *Client) RejectOffer(ctx context.Context, id, note string) error {
	return c.reviewOffer(ctx, id, "reject", note)
}

func (c *Client) reviewOffer(ctx context.Context, id, verb, note string) error {
	var body interface{}
	if note != "" {
		body = map[string]string{"note": note}
	}
	return c.do(ctx, http.MethodPost, "/api/v1/offers/"+url.PathEscape(id)+"/"+verb, body, nil)
}

// ProductMutations dispatches row actions on the catalog list.
func (c *Client) ProductMutations() MutationFunc {
	return func(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
		switch req.Action {
		case ActionToggleApproval:
			return c.ToggleProductApproval(ctx, req.TargetID)
		case ActionDelete:
			if err := c.DeleteProduct(ctx, req.TargetID); err != nil {
				return nil, err
			}
			return &MutationResult{Message: "product deleted"}, nil
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported product action")
		}
	}
}

// OfferMutations dispatches row actions on the offer review list.
func (c *Client) OfferMutations() MutationFunc {
	return func(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
		switch req.Action {
		case ActionApprove:
			if err := c.ApproveOffer(ctx, req.TargetID, req.Note); err != nil {
				return nil, err
			}
			return &MutationResult{Message: "offer approved", NewState: true}, nil
		case ActionReject:
			if err := c.RejectOffer(ctx, req.TargetID, req.Note); err != nil {
				return nil, err
			}
			return &MutationResult{Message: "offer rejected"}, nil
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported offer action")
		}
	}
}

func listPage[T any](ctx context.Context, c *Client, path string, q ListQuery) (*PageResult[T], error) {
	q = q.Normalize()
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("per_page", strconv.Itoa(q.PerPage))
	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}
	if q.Category != nil {
		params.Set("category", *q.Category)
	}
	if q.Approved != nil {
		params.Set("is_approved", strconv.FormatBool(*q.Approved))
	}

	env, err := c.roundTrip(ctx, http.MethodGet, path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var items []T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed list payload")
		}
	}
	result := &PageResult[T]{Items: items, CurrentPage: q.Page, PerPage: q.PerPage}
	if env.Pagination != nil {
		result.CurrentPage = env.Pagination.Page
		result.PerPage = env.Pagination.PageSize
		result.Total = env.Pagination.TotalCount
		result.LastPage = env.Pagination.TotalPages
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	env, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed response payload")
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "failed to read response")
	}
	env := &envelope{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, env); err != nil && resp.StatusCode < 400 {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed response envelope")
		}
	}
	if resp.StatusCode >= 400 {
		if env.Error != nil {
			return nil, env.Error
		}
		return nil, statusError(resp.StatusCode)
	}
	return env, nil
}

func statusError(status int) *appErrors.Error {
	switch status {
	case http.StatusBadRequest:
		return appErrors.ErrValidation
	case http.StatusUnauthorized:
		return appErrors.ErrUnauthorized
	case http.StatusForbidden:
		return appErrors.ErrForbidden
	case http.StatusNotFound:
		return appErrors.ErrNotFound
	case http.StatusConflict:
		return appErrors.ErrConflict
	default:
		return appErrors.ErrInternal
	}
}
