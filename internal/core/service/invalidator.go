package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CacheInvalidator = (*Invalidator)(nil)
var _ port.InvalidationApplier = (*Invalidator)(nil)

// An Invalidator drops local cached results and announces the
// invalidation to the other storefront replicas.
//
// The producer is optional.
type Invalidator struct {
	origin   string
	local    port.CacheInvalidator
	producer port.InvalidationProducer
	now      func() time.Time
}

func NewInvalidator(
	origin string,
	local port.CacheInvalidator,
	producer port.InvalidationProducer,
) Invalidator {
	return Invalidator{
		origin:   origin,
		local:    local,
		producer: producer,
		now:      time.Now,
	}
}

func (i Invalidator) Invalidate(
	ctx context.Context, tags ...domain.CacheTag,
) error {
	const op = "Invalidator.Invalidate"

	if err := i.local.Invalidate(ctx, tags...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if i.producer == nil {
		return nil
	}

	evt := domain.CacheInvalidation{
		Origin:     i.origin,
		Tags:       tags,
		OccurredAt: i.now().UnixMilli(),
	}
	if err := i.producer.ProduceInvalidation(ctx, evt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyInvalidation applies an invalidation made by another replica.
func (i Invalidator) ApplyInvalidation(
	ctx context.Context, evt domain.CacheInvalidation,
) error {
	const op = "Invalidator.ApplyInvalidation"

	if evt.Origin == i.origin {
		return nil
	}

	if err := i.local.Invalidate(ctx, evt.Tags...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Debug("applied remote invalidation",
		"op", op, "origin", evt.Origin, "tags", evt.Tags,
	)
	return nil
}
