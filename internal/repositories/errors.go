package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when an order line exceeds the product's stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("record already exists")
)

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", fmt.Sprintf(format, args...), err)
}

// duplicateOr maps gorm.ErrDuplicatedKey to ErrDuplicate and wraps anything else.
func duplicateOr(err error, action string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", action, ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// StockError names the product whose stock could not cover an order line.
type StockError struct {
	ProductID   string
	ProductName string
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d)", e.ProductName, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
