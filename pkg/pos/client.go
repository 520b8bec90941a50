package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
)

const maxResponseBytes = 4 << 20

// Client talks to the POS REST API. A Client is safe for concurrent use; use
// WithToken to derive a per-session client that authenticates its requests.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  apt.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(baseURL string, logger apt.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) ListTables(ctx context.Context) ([]Table, error) {
	raw, err := c.get(ctx, "/tables/", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Table](raw, "tables", c.logger), nil
}

func (c *Client) ListRecipes(ctx context.Context) ([]Recipe, error) {
	query := url.Values{}
	query.Set("is_active", "true")
	query.Set("is_available", "true")
	raw, err := c.get(ctx, "/recipes/", query)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Recipe](raw, "recipes", c.logger), nil
}

func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	query := url.Values{}
	query.Set("is_active", "true")
	raw, err := c.get(ctx, "/containers/", query)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Container](raw, "containers", c.logger), nil
}

func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	raw, err := c.get(ctx, "/groups/", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Group](raw, "groups", c.logger), nil
}

// ListOpenOrders returns every open order across the floor.
func (c *Client) ListOpenOrders(ctx context.Context) ([]Order, error) {
	query := url.Values{}
	query.Set("status", OpenOrderStatus)
	raw, err := c.get(ctx, "/orders/", query)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Order](raw, "orders", c.logger), nil
}

// ListTableOrders returns the open orders of a single table.
func (c *Client) ListTableOrders(ctx context.Context, tableID int) ([]Order, error) {
	if tableID <= 0 {
		return nil, fmt.Errorf("invalid table id %d", tableID)
	}
	query := url.Values{}
	query.Set("table", strconv.Itoa(tableID))
	query.Set("status", OpenOrderStatus)
	raw, err := c.get(ctx, "/orders/", query)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Order](raw, "orders", c.logger), nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	raw, err := c.send(ctx, http.MethodPost, "/orders/", nil, req)
	if err != nil {
		return nil, err
	}
	return c.decodeSaved(raw), nil
}

func (c *Client) UpdateOrder(ctx context.Context, orderID int, req UpdateOrderRequest) (*Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("invalid order id %d", orderID)
	}
	raw, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/", orderID), nil, req)
	if err != nil {
		return nil, err
	}
	return c.decodeSaved(raw), nil
}

// Ping checks that the API answers the tables endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/tables/", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.send(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if c == nil || c.baseURL == "" {
		return nil, errors.New("pos client not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.Debug("pos api rejected request", "method", method, "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return nil, apiErr
	}

	return raw, nil
}

// decodeSaved reads the order echoed back by a successful write. The write
// already happened, so a body that cannot be decoded yields nil, not an error.
func (c *Client) decodeSaved(raw []byte) *Order {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		c.logger.Info("order saved but response not decoded", "error", err)
		return nil
	}
	return &order
}
