// Package alpaca handles interactions with the Alpaca trading API.
package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/your-org/auto-buy-bot/pkg/logger"
)

const (
	// DefaultPaperURL is the paper trading endpoint.
	DefaultPaperURL = "https://paper-api.alpaca.markets"

	defaultTimeout = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	// RatePerMinute caps outgoing requests. Zero or negative disables the cap.
	RatePerMinute int
}

// Client provides methods to interact with the Alpaca API.
// It never retries a request on its own: an order submitted twice is two orders.
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a new Alpaca API client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPaperURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("APCA-API-KEY-ID", opts.APIKey).
		SetHeader("APCA-API-SECRET-KEY", opts.APISecret)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerMinute > 0 {
		burst := opts.RatePerMinute / 20
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), burst)
	}

	return &Client{rest: rc, limiter: limiter}
}

// do performs a single request and decodes a 2xx JSON body into out, when out is non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, build func(*resty.Request), out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limit wait for %s %s", method, endpoint)
	}

	req := c.rest.R().SetContext(ctx)
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return errors.Wrapf(err, "failed to execute %s %s request", method, endpoint)
	}

	body := resp.Body()
	logger.Debugf("%s %s -> %d: %s", method, endpoint, resp.StatusCode(), string(body))

	if resp.IsError() {
		return decodeAPIError(resp.StatusCode(), body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response (status: %d, body: %s)", method, endpoint, resp.StatusCode(), string(body))
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// GetAccount retrieves the trading account.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/v2/account", nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// SubmitOrder sends a new order request to Alpaca.
func (c *Client) SubmitOrder(ctx context.Context, reqBody OrderRequest) (*Order, error) {
	if reqBody.Symbol == "" {
		return nil, errors.New("order symbol is empty")
	}
	if !reqBody.Qty.IsPositive() {
		return nil, errors.Errorf("order quantity must be positive, got %s", reqBody.Qty)
	}

	var order Order
	err := c.do(ctx, http.MethodPost, "/v2/orders", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(reqBody)
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPositions retrieves all open positions.
func (c *Client) ListPositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.do(ctx, http.MethodGet, "/v2/positions", nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// ListOrders retrieves orders matching params, newest first.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error) {
	var orders []Order
	err := c.do(ctx, http.MethodGet, "/v2/orders", func(r *resty.Request) {
		status := params.Status
		if status == "" {
			status = StatusAll
		}
		r.SetQueryParam("status", status)
		r.SetQueryParam("direction", "desc")
		if !params.After.IsZero() {
			r.SetQueryParam("after", params.After.UTC().Format(time.RFC3339))
		}
		if !params.Until.IsZero() {
			r.SetQueryParam("until", params.Until.UTC().Format(time.RFC3339))
		}
		if params.Limit > 0 {
			r.SetQueryParam("limit", strconv.Itoa(params.Limit))
		}
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CloseAllPositions liquidates every open position, optionally cancelling open orders first.
func (c *Client) CloseAllPositions(ctx context.Context, cancelOrders bool) error {
	return c.do(ctx, http.MethodDelete, "/v2/positions", func(r *resty.Request) {
		r.SetQueryParam("cancel_orders", strconv.FormatBool(cancelOrders))
	}, nil)
}

// CancelAllOrders cancels every open order.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v2/orders", nil, nil)
}
