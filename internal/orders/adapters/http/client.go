package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

const (
	routePendingOrders = "/orders/pending"
	routeOrderStatus   = "/payments/order/{orderId}"
	routeBulkPayment   = "/orders/bulk-payment"

	headerIdempotencyKey = "Idempotency-Key"
)

// APIError is a non-2xx answer of the payments API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payments api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("payments api returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets a 404 match ports.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ports.ErrNotFound && e.StatusCode == http.StatusNotFound
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the payments API over JSON/HTTP.
type Client struct {
	rest    *resty.Client
	metrics *Metrics
}

func NewClient(cfg ClientConfig, metrics *Metrics) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json")

	return &Client{rest: rest, metrics: metrics}
}

type pendingOrdersResponse struct {
	Orders []domain.PendingOrder `json:"orders"`
}

type bulkPaymentRequest struct {
	OrderIDs      []string `json:"orderIds"`
	PaymentMethod string   `json:"paymentMethod"`
}

type bulkPaymentResponse struct {
	PaymentID        string                    `json:"paymentId"`
	InitPoint        string                    `json:"initPoint"`
	SandboxInitPoint string                    `json:"sandboxInitPoint"`
	PixQRData        *domain.PaymentInstrument `json:"pixQrData"`
	OrderCount       int                       `json:"orderCount"`
	TotalCents       int64                     `json:"totalCents"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) LookupPendingOrders(ctx context.Context, cpf string) ([]domain.PendingOrder, error) {
	var out pendingOrdersResponse
	req := c.rest.R().
		SetContext(ctx).
		SetQueryParam("cpf", cpf).
		SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, routePendingOrders); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		out.Orders = []domain.PendingOrder{}
	}
	return out.Orders, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.StatusReport, error) {
	var out domain.StatusReport
	req := c.rest.R().
		SetContext(ctx).
		SetPathParam("orderId", orderID).
		SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, routeOrderStatus); err != nil {
		return domain.StatusReport{}, err
	}
	return out, nil
}

func (c *Client) CreateBatchPayment(ctx context.Context, in ports.BatchPaymentRequest) (*domain.BatchPayment, error) {
	var out bulkPaymentResponse
	req := c.rest.R().
		SetContext(ctx).
		SetBody(bulkPaymentRequest{OrderIDs: in.OrderIDs, PaymentMethod: in.PaymentMethod}).
		SetResult(&out)
	if in.IdempotencyKey != "" {
		req.SetHeader(headerIdempotencyKey, in.IdempotencyKey)
	}

	if err := c.do(ctx, req, http.MethodPost, routeBulkPayment); err != nil {
		return nil, err
	}

	return &domain.BatchPayment{
		PaymentID:          out.PaymentID,
		RedirectURL:        out.InitPoint,
		SandboxRedirectURL: out.SandboxInitPoint,
		Instrument:         out.PixQRData,
		OrderCount:         out.OrderCount,
		TotalCents:         out.TotalCents,
	}, nil
}

// do executes req and turns transport failures and error statuses into errors.
func (c *Client) do(ctx context.Context, req *resty.Request, method, route string) error {
	var apiErr errorResponse
	req.SetError(&apiErr)

	start := time.Now()
	resp, err := req.Execute(method, route)
	duration := time.Since(start).Seconds()

	if err != nil {
		c.metrics.RecordRequest(ctx, method, route, 0, duration)
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	c.metrics.RecordRequest(ctx, method, route, resp.StatusCode(), duration)

	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Message}
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode()}
	}
	return nil
}

var _ ports.Gateway = (*Client)(nil)

// IsRetryable reports whether err is worth retrying as is: a 5xx or 429 answer, a timeout
// or a transport failure. Validation errors and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError || apiErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
