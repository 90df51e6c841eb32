package service_test

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockProductsAPI struct {
	mock.Mock
}

func (m *MockProductsAPI) ListProducts(
	ctx context.Context, q domain.CatalogQuery,
) ([]domain.CatalogItem, error) {
	args := m.Called(ctx, q)
	vs, _ := args.Get(0).([]domain.CatalogItem)
	return vs, args.Error(1)
}

func (m *MockProductsAPI) GetProduct(
	ctx context.Context, id string,
) (domain.CatalogItem, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(domain.CatalogItem)
	return v, args.Error(1)
}

func (m *MockProductsAPI) ListCategories(
	ctx context.Context,
) ([]domain.Category, error) {
	args := m.Called(ctx)
	vs, _ := args.Get(0).([]domain.Category)
	return vs, args.Error(1)
}

func (m *MockProductsAPI) DeleteProduct(
	ctx context.Context, r domain.DeleteRequest,
) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MockCartAPI struct {
	mock.Mock
}

func (m *MockCartAPI) AddToCart(
	ctx context.Context, r domain.CartAddRequest,
) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockCartAPI) CartSize(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(
	ctx context.Context, tags ...domain.CacheTag,
) error {
	args := m.Called(ctx, tags)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) ProduceInvalidation(
	ctx context.Context, evt domain.CacheInvalidation,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockProducer) Close() {
	m.Called()
}

type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, v domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, v)
}

func (n *recordingNotifier) Notices() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notice(nil), n.notices...)
}

// passthroughCache calls fetch on every read and counts the calls.
type passthroughCache struct {
	fetches     map[string]int
	invalidated []domain.CacheTag
}

func newPassthroughCache() *passthroughCache {
	return &passthroughCache{fetches: make(map[string]int)}
}

func (c *passthroughCache) Fetch(
	ctx context.Context,
	tag domain.CacheTag,
	key string,
	fetch func(context.Context) (any, error),
) (any, error) {
	c.fetches[string(tag)+"/"+key]++
	return fetch(ctx)
}

func (c *passthroughCache) Invalidate(
	_ context.Context, tags ...domain.CacheTag,
) error {
	c.invalidated = append(c.invalidated, tags...)
	return nil
}
