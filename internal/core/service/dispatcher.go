package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CartAdder = (*Dispatcher)(nil)
var _ port.ProductDeleter = (*Dispatcher)(nil)

// A Dispatcher runs catalog mutations against the remote API
// and performs their side effects: user notices and cache invalidation.
//
// Every call is one-shot. Failed mutations are not retried.
type Dispatcher struct {
	products    port.ProductsAPI
	cart        port.CartAPI
	invalidator port.CacheInvalidator
}

func NewDispatcher(
	products port.ProductsAPI,
	cart port.CartAPI,
	invalidator port.CacheInvalidator,
) Dispatcher {
	return Dispatcher{products, cart, invalidator}
}

func (d Dispatcher) AddToCart(
	ctx context.Context,
	s domain.Session,
	item domain.CatalogItem,
	n port.Notifier,
) error {
	const op = "Dispatcher.AddToCart"
	log := slog.With("op", op, "itemID", item.ID)

	if !domain.PermissionsOf(s).Has(domain.PermAddToCart) {
		n.Notify(ctx, domain.Notice{
			Severity: domain.SeverityDefault,
			Message:  domain.MsgLoginFirst,
		})
		return fmt.Errorf("%s: %w", op, domain.ErrLoginRequired)
	}

	err := d.cart.AddToCart(ctx, domain.CartAddRequest{
		Item:  item,
		Token: s.Token,
	})
	if err != nil {
		n.Notify(ctx, failureNotice(err))
		log.Warn("failed to add item to cart", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	n.Notify(ctx, domain.Notice{
		Severity: domain.SeveritySuccess,
		Message:  domain.MsgAddedToCart,
	})
	d.invalidate(ctx, op, domain.TagCart)

	log.Info("item added to cart")
	return nil
}

func (d Dispatcher) DeleteProduct(
	ctx context.Context,
	s domain.Session,
	id string,
	c port.Confirmer,
	n port.Notifier,
) error {
	const op = "Dispatcher.DeleteProduct"
	log := slog.With("op", op, "itemID", id)

	if !domain.PermissionsOf(s).Has(domain.PermManageCatalog) {
		return fmt.Errorf("%s: %w", op, domain.ErrForbidden)
	}

	if !c.Confirm(ctx, domain.MsgConfirmDelete) {
		return fmt.Errorf("%s: %w", op, domain.ErrCancelled)
	}

	err := d.products.DeleteProduct(ctx, domain.DeleteRequest{
		ID:    id,
		Token: s.Token,
	})
	if err != nil {
		n.Notify(ctx, failureNotice(err))
		log.Warn("failed to delete product", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	n.Notify(ctx, domain.Notice{
		Severity: domain.SeveritySuccess,
		Message:  domain.MsgProductDeleted,
	})
	d.invalidate(ctx, op, domain.TagProducts)

	log.Info("product deleted")
	return nil
}

// invalidate does not fail the mutation, it has already happened.
func (d Dispatcher) invalidate(
	ctx context.Context, op string, tags ...domain.CacheTag,
) {
	if err := d.invalidator.Invalidate(ctx, tags...); err != nil {
		slog.Error("failed to invalidate cache",
			"op", op, "tags", tags, "err", err,
		)
	}
}

// failureNotice uses the server message and falls back to a generic
// one for failures without a response body.
func failureNotice(err error) domain.Notice {
	msg := domain.MsgUnexpectedError

	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		msg = remoteErr.Message
	}

	return domain.Notice{Severity: domain.SeverityError, Message: msg}
}
