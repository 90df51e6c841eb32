package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CatalogReader = (*Catalog)(nil)

// A Catalog reads catalog and cart data through the query cache.
type Catalog struct {
	products port.ProductsAPI
	cart     port.CartAPI
	cache    port.QueryCache
}

func NewCatalog(
	products port.ProductsAPI, cart port.CartAPI, cache port.QueryCache,
) Catalog {
	return Catalog{products, cart, cache}
}

// Items of unknown categories are read past the cache.
func (c Catalog) Items(
	ctx context.Context, q domain.CatalogQuery,
) ([]domain.CatalogItem, error) {
	const op = "Catalog.Items"

	if !c.knownCategory(ctx, q) {
		vs, err := c.products.ListProducts(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return vs, nil
	}

	key := "items:" + q.Category + ":" + strconv.Itoa(q.Page)
	vs, err := cached(ctx, c.cache, domain.TagProducts, key,
		func(ctx context.Context) ([]domain.CatalogItem, error) {
			return c.products.ListProducts(ctx, q)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (c Catalog) knownCategory(ctx context.Context, q domain.CatalogQuery) bool {
	if q.IsAll() {
		return true
	}

	categories, err := c.Categories(ctx)
	if err != nil {
		return false
	}
	for _, v := range categories {
		if v.ID == q.Category {
			return true
		}
	}
	return false
}

func (c Catalog) Item(
	ctx context.Context, id string,
) (domain.CatalogItem, error) {
	const op = "Catalog.Item"

	v, err := cached(ctx, c.cache, domain.TagProducts, "item:"+id,
		func(ctx context.Context) (domain.CatalogItem, error) {
			return c.products.GetProduct(ctx, id)
		},
	)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (c Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "Catalog.Categories"

	vs, err := cached(ctx, c.cache, domain.TagProducts, "categories",
		c.products.ListCategories,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

// CartSize is zero for anonymous sessions.
// Results are keyed by the session token the API authenticates.
func (c Catalog) CartSize(ctx context.Context, s domain.Session) (int, error) {
	const op = "Catalog.CartSize"

	if !s.LoggedIn() {
		return 0, nil
	}

	n, err := cached(ctx, c.cache, domain.TagCart, "size:"+s.Email+":"+s.Token,
		func(ctx context.Context) (int, error) {
			return c.cart.CartSize(ctx, s.Token)
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func cached[T any](
	ctx context.Context,
	cache port.QueryCache,
	tag domain.CacheTag,
	key string,
	fetch func(context.Context) (T, error),
) (T, error) {
	var zero T

	v, err := cache.Fetch(ctx, tag, key,
		func(ctx context.Context) (any, error) {
			return fetch(ctx)
		},
	)
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached value %T for %q", v, key)
	}
	return t, nil
}
