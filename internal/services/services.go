// Package services holds the storefront business rules. Every exported method
// returns *apperr.Error values so handlers can map failures to HTTP statuses.
package services

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/repositories"
	"storefront/pkg/cache"
	"storefront/pkg/rabbitmq"
)

// EventPublisher emits order lifecycle events. *rabbitmq.Client implements it.
type EventPublisher interface {
	PublishOrderCreated(evt rabbitmq.OrderCreated) error
	PublishOrderStatusUpdated(evt rabbitmq.OrderStatusUpdated) error
}

// CacheInvalidator drops cached entries. *cache.Cache implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// invalidateProducts drops cached product lists whose stock, sold count or
// rating may have changed. c may be nil.
func invalidateProducts(ctx context.Context, c CacheInvalidator) {
	if c == nil {
		return
	}
	c.Invalidate(ctx, cache.KeyFeaturedProducts)
}

// repoErr turns a repository error into an apperr: ErrNotFound becomes a
// NotFound carrying notFoundMsg, anything else an Unexpected with action.
func repoErr(err error, notFoundMsg, action string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("%s", notFoundMsg)
	}
	return apperr.Unexpected(err, "%s", action)
}
