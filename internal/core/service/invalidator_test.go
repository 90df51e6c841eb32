package service_test

import (
	"errors"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInvalidator(t *testing.T) {
	t.Run("LocalOnly", func(t *testing.T) {
		local := newPassthroughCache()
		i := service.NewInvalidator("origin-a", local, nil)

		err := i.Invalidate(t.Context(), domain.TagCart)
		require.NoError(t, err)
		assert.Equal(t, []domain.CacheTag{domain.TagCart}, local.invalidated)
	})

	t.Run("Broadcast", func(t *testing.T) {
		local := newPassthroughCache()
		producer := new(MockProducer)
		i := service.NewInvalidator("origin-a", local, producer)

		producer.On("ProduceInvalidation", mock.Anything,
			mock.MatchedBy(func(evt domain.CacheInvalidation) bool {
				return evt.Origin == "origin-a" &&
					len(evt.Tags) == 1 &&
					evt.Tags[0] == domain.TagProducts &&
					evt.OccurredAt > 0
			}),
		).Return(nil).Once()

		err := i.Invalidate(t.Context(), domain.TagProducts)
		require.NoError(t, err)
		producer.AssertExpectations(t)
		assert.Equal(t, []domain.CacheTag{domain.TagProducts}, local.invalidated)
	})

	t.Run("BroadcastFailure", func(t *testing.T) {
		local := newPassthroughCache()
		producer := new(MockProducer)
		i := service.NewInvalidator("origin-a", local, producer)

		producer.On("ProduceInvalidation", mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		err := i.Invalidate(t.Context(), domain.TagProducts)
		require.Error(t, err)
		assert.Equal(t, []domain.CacheTag{domain.TagProducts}, local.invalidated)
	})

	t.Run("ApplyForeign", func(t *testing.T) {
		local := newPassthroughCache()
		i := service.NewInvalidator("origin-a", local, nil)

		err := i.ApplyInvalidation(t.Context(), domain.CacheInvalidation{
			Origin: "origin-b",
			Tags:   []domain.CacheTag{domain.TagCart, domain.TagProducts},
		})
		require.NoError(t, err)
		assert.Equal(t,
			[]domain.CacheTag{domain.TagCart, domain.TagProducts},
			local.invalidated,
		)
	})

	t.Run("SkipOwn", func(t *testing.T) {
		local := newPassthroughCache()
		i := service.NewInvalidator("origin-a", local, nil)

		err := i.ApplyInvalidation(t.Context(), domain.CacheInvalidation{
			Origin: "origin-a",
			Tags:   []domain.CacheTag{domain.TagCart},
		})
		require.NoError(t, err)
		assert.Empty(t, local.invalidated)
	})
}
