// Package payment talks to the external payment providers used at checkout.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrProvider marks a failure reported by, or while reaching, a payment provider.
var ErrProvider = errors.New("payment provider error")

// ErrInvalidOrderID is returned for provider order ids outside the providers' id charset.
var ErrInvalidOrderID = errors.New("invalid provider order id")

var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// checkOrderID rejects ids that could alter the request path built from them.
func checkOrderID(id string) error {
	if !orderIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidOrderID, id)
	}
	return nil
}

// LineItem is one cart line sent to the provider.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// IntentRequest describes the payment the buyer is about to approve.
type IntentRequest struct {
	Items []LineItem
	Total decimal.Decimal
}

// Gateway creates provider-side payment orders and captures them once approved.
// Both calls return the provider's response body unchanged.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (json.RawMessage, error)
	Capture(ctx context.Context, providerOrderID string) (json.RawMessage, error)
}

// itemTotal sums price times quantity over items.
func itemTotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
