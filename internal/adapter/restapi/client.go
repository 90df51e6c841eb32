package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.ProductsAPI = (*Client)(nil)
var _ port.CartAPI = (*Client)(nil)

const maxErrorBody = 64 << 10

// A Client calls the remote catalog and cart REST API.
//
// Reads are retried on transport errors and 5xx responses,
// mutations are sent exactly once.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	readRetry retry.RetryConfig
}

type Opt func(*Client)

func WithHTTPClient(cl *http.Client) Opt {
	return func(c *Client) {
		c.http = cl
	}
}

func WithReadAttempts(n int, backoff retry.Backoff) Opt {
	return func(c *Client) {
		c.readRetry.MaxAttempts = n
		c.readRetry.Backoff = backoff
	}
}

func New(baseURL string, timeout time.Duration, opts ...Opt) (Client, error) {
	const op = "restapi.New"

	u, err := url.Parse(baseURL)
	if err != nil {
		return Client{}, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Client{}, fmt.Errorf("%s: invalid base url %q", op, baseURL)
	}

	c := Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		readRetry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
		},
	}
	c.readRetry.ShouldRetry = shouldRetryRead

	for _, opt := range opts {
		opt(&c)
	}
	return c, nil
}

func (c Client) ListProducts(
	ctx context.Context, q domain.CatalogQuery,
) ([]domain.CatalogItem, error) {
	const op = "Client.ListProducts"

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if !q.IsAll() {
		params.Set("category", q.Category)
	}

	var ps []product
	err := c.read(ctx, "/products", params, "", &ps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.CatalogItem, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, p.toDomain())
	}
	return vs, nil
}

func (c Client) GetProduct(
	ctx context.Context, id string,
) (domain.CatalogItem, error) {
	const op = "Client.GetProduct"

	var p product
	err := c.read(ctx, "/products/"+url.PathEscape(id), nil, "", &p)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			err = fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return domain.CatalogItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return p.toDomain(), nil
}

func (c Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "Client.ListCategories"

	var cs []category
	if err := c.read(ctx, "/categories", nil, "", &cs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.Category, 0, len(cs))
	for _, v := range cs {
		vs = append(vs, v.toDomain())
	}
	return vs, nil
}

func (c Client) DeleteProduct(
	ctx context.Context, r domain.DeleteRequest,
) error {
	const op = "Client.DeleteProduct"

	path := "/products/" + url.PathEscape(r.ID)
	err := c.do(ctx, http.MethodDelete, path, nil, r.Token, nil, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c Client) AddToCart(
	ctx context.Context, r domain.CartAddRequest,
) error {
	const op = "Client.AddToCart"

	body := cartProductFromDomain(r.Item)
	err := c.do(ctx, http.MethodPost, "/cart", nil, r.Token, body, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c Client) CartSize(ctx context.Context, token string) (int, error) {
	const op = "Client.CartSize"

	var items []cartItem
	if err := c.read(ctx, "/cart", nil, token, &items); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var n int
	for _, v := range items {
		n += max(v.Quantity, 1)
	}
	return n, nil
}

func (c Client) read(
	ctx context.Context, path string, q url.Values, token string, out any,
) error {
	return retry.Do(ctx, c.readRetry, func() error {
		return c.do(ctx, http.MethodGet, path, q, token, nil, out)
	})
}

func (c Client) do(
	ctx context.Context,
	method, path string,
	q url.Values,
	token string,
	in, out any,
) error {
	const op = "Client.do"
	log := slog.With("op", op, "method", method, "path", path)

	req, err := c.newRequest(ctx, method, path, q, token, in)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("failed to close response body", "err", err)
		}
	}()

	log.Debug("remote call", "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return readRemoteError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c Client) newRequest(
	ctx context.Context,
	method, path string,
	q url.Values,
	token string,
	in any,
) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// readRemoteError keeps Message empty when the body has no message field.
func readRemoteError(resp *http.Response) error {
	remoteErr := &domain.RemoteError{Status: resp.StatusCode}

	var body errorBody
	err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)
	if err == nil {
		remoteErr.Message = body.Message
	}
	return remoteErr
}

func isStatus(err error, status int) bool {
	var remoteErr *domain.RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Status == status
}

func shouldRetryRead(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Status >= http.StatusInternalServerError
	}
	return true
}
