// Package client is an HTTP client of the ERP API.
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

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/agent"
	"github.com/xenking/erp-inventory/internal/api"
)

// APIKeyHeader carries the API key of write requests.
const APIKeyHeader = "api_key"

// Client calls the ERP API. It implements agent.Backend.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

var _ agent.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the key sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client of the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/") + "/api",
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) ListProducts(ctx context.Context, lowStockOnly bool) ([]api.Product, error) {
	q := url.Values{}
	if lowStockOnly {
		q.Set("low_stock", "true")
	}
	var out []api.Product
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*api.Product, error) {
	var out api.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, status string) ([]api.Order, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []api.Order
	if err := c.do(ctx, http.MethodGet, "/orders", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*api.Order, error) {
	var out api.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req api.OrderCreate) (*api.Order, error) {
	var out api.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetOrderStatus(ctx context.Context, id int64, status string) (*api.Order, error) {
	var out api.Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+itoa(id), nil, api.StatusUpdate{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/orders/"+itoa(id), nil, nil, nil)
}

func (c *Client) Restock(ctx context.Context, productID int64, quantity int) (*api.Product, error) {
	q := url.Values{"quantity": {strconv.Itoa(quantity)}}
	var out api.Product
	if err := c.do(ctx, http.MethodPost, "/inventory/restock/"+itoa(productID), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StockAlerts(ctx context.Context) ([]api.StockAlert, error) {
	var out []api.StockAlert
	if err := c.do(ctx, http.MethodGet, "/inventory/alerts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SalesReport(ctx context.Context) (*api.SalesReport, error) {
	var out api.SalesReport
	if err := c.do(ctx, http.MethodGet, "/reports/sales", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InventoryReport(ctx context.Context) (*api.InventoryReport, error) {
	var out api.InventoryReport
	if err := c.do(ctx, http.MethodGet, "/reports/inventory", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends a message to the agent hosted by the server.
func (c *Client) Chat(ctx context.Context, message string) (*api.ChatResponse, error) {
	var out api.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/agent/chat", nil, api.ChatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetChat clears the conversation of the server-side agent.
func (c *Client) ResetChat(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/agent/reset", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &api.Error{}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		apiErr = &api.Error{Code: resp.StatusCode, Kind: api.KindInternal, Message: msg}
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	return apiErr
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
