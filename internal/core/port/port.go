package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContext interface {
		Run(context.Context)
	}

	closer interface {
		Close()
	}
)

// Inbound ports.

type CatalogReader interface {
	Items(context.Context, domain.CatalogQuery) ([]domain.CatalogItem, error)
	Item(ctx context.Context, id string) (domain.CatalogItem, error)
	Categories(context.Context) ([]domain.Category, error)
	CartSize(context.Context, domain.Session) (int, error)
}

type CartAdder interface {
	AddToCart(context.Context, domain.Session, domain.CatalogItem, Notifier) error
}

type ProductDeleter interface {
	DeleteProduct(
		ctx context.Context,
		s domain.Session,
		id string,
		c Confirmer,
		n Notifier,
	) error
}

// Collaborators supplied by the surrounding shell.

type Notifier interface {
	Notify(context.Context, domain.Notice)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Outbound ports.

type ProductsAPI interface {
	ListProducts(context.Context, domain.CatalogQuery) ([]domain.CatalogItem, error)
	GetProduct(ctx context.Context, id string) (domain.CatalogItem, error)
	ListCategories(context.Context) ([]domain.Category, error)
	DeleteProduct(context.Context, domain.DeleteRequest) error
}

type CartAPI interface {
	AddToCart(context.Context, domain.CartAddRequest) error
	CartSize(ctx context.Context, token string) (int, error)
}

type CacheInvalidator interface {
	Invalidate(context.Context, ...domain.CacheTag) error
}

type QueryCache interface {
	CacheInvalidator
	Fetch(
		ctx context.Context,
		tag domain.CacheTag,
		key string,
		fetch func(context.Context) (any, error),
	) (any, error)
}

type InvalidationProducer interface {
	ProduceInvalidation(context.Context, domain.CacheInvalidation) error
	closer
}

type InvalidationConsumer interface {
	runnerContext
	closer
}

type InvalidationApplier interface {
	ApplyInvalidation(context.Context, domain.CacheInvalidation) error
}
