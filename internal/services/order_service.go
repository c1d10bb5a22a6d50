package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/payment"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemInput is one purchased line as sent by the checkout page.
type OrderItemInput struct {
	ProductID       string
	ProductName     string
	ProductCategory string
	Quantity        int
	Size            string
	Color           string
	Price           decimal.Decimal
}

// FinalOrderInput is the checkout payload submitted after payment capture.
type FinalOrderInput struct {
	Items     []OrderItemInput
	AddressID string
	CouponID  string
	Total     decimal.Decimal
	PaymentID string
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	gateway        payment.Gateway
	events         EventPublisher
	cache          CacheInvalidator
	allowBackorder bool
	log            *zap.Logger
}

// NewOrderService creates a new OrderService. events and c may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, gateway payment.Gateway, events EventPublisher, c CacheInvalidator, allowBackorder bool, log *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		gateway:        gateway,
		events:         events,
		cache:          c,
		allowBackorder: allowBackorder,
		log:            log,
	}
}

// CreatePaymentIntent opens a payment with the configured provider.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (json.RawMessage, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("At least one item is required")
	}
	for _, it := range req.Items {
		if it.Quantity < 1 || it.Price.IsNegative() {
			return nil, apperr.Validation("Invalid item %s", it.ID)
		}
	}
	if !req.Total.IsPositive() {
		return nil, apperr.Validation("Total must be positive")
	}

	resp, err := s.gateway.CreateIntent(ctx, req)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to create %s payment", s.gateway.Name())
	}
	return resp, nil
}

// CapturePayment confirms an approved provider order.
func (s *OrderService) CapturePayment(ctx context.Context, providerOrderID string) (json.RawMessage, error) {
	if strings.TrimSpace(providerOrderID) == "" {
		return nil, apperr.Validation("orderId is required")
	}
	resp, err := s.gateway.Capture(ctx, providerOrderID)
	if errors.Is(err, payment.ErrInvalidOrderID) {
		return nil, apperr.Validation("Invalid orderId")
	}
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to capture %s payment", s.gateway.Name())
	}
	return resp, nil
}

// CreateFinalOrder records a paid order. Stock, sold counters, the cart and
// the coupon usage are updated in the same transaction as the order insert.
// Prices, the coupon window and the total are taken from the client as is.
func (s *OrderService) CreateFinalOrder(ctx context.Context, userID string, in FinalOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("At least one item is required")
	}
	if in.AddressID == "" {
		return nil, apperr.Validation("addressId is required")
	}

	order := &models.Order{
		UserID:        userID,
		AddressID:     in.AddressID,
		Total:         in.Total,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodCreditCard,
		PaymentStatus: models.PaymentStatusCompleted,
		PaymentID:     in.PaymentID,
		Items:         make([]models.OrderItem, 0, len(in.Items)),
	}
	if in.CouponID != "" {
		couponID := in.CouponID
		order.CouponID = &couponID
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, apperr.Validation("Every item needs a productId and a quantity of at least 1")
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductCategory: it.ProductCategory,
			Quantity:        it.Quantity,
			Size:            it.Size,
			Color:           it.Color,
			Price:           it.Price,
		})
	}

	err := s.orderRepo.PlaceOrder(ctx, order, repositories.PlaceOrderOptions{AllowBackorder: s.allowBackorder})
	if err != nil {
		var stockErr *repositories.StockError
		switch {
		case errors.As(err, &stockErr):
			return nil, apperr.Conflict("Insufficient stock for %s", stockErr.ProductName)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperr.NotFound("Product or coupon not found")
		default:
			return nil, apperr.Unexpected(err, "failed to create order")
		}
	}

	invalidateProducts(ctx, s.cache)
	s.publishCreated(order)
	return order, nil
}

func (s *OrderService) publishCreated(order *models.Order) {
	if s.events == nil {
		return
	}
	evt := rabbitmq.OrderCreated{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.Total,
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	}
	if err := s.events.PublishOrderCreated(evt); err != nil {
		s.log.Warn("failed to publish order created event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// GetOrder returns an order of userID.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, repoErr(err, "Order not found", "failed to fetch order")
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("Order not found")
	}
	return order, nil
}

// GetOrdersByUser lists the orders of userID.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch orders")
	}
	return orders, nil
}

// GetAllOrders lists every order for administrators.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch orders")
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to status. Delivered and cancelled
// orders are final.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !models.ValidOrderStatus(status) {
		return nil, apperr.Validation("Invalid order status: %s", status)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "Order not found", "failed to fetch order")
	}
	if order.Status == status {
		return order, nil
	}
	if models.TerminalOrderStatus(order.Status) {
		return nil, apperr.Conflict("Order is already %s", order.Status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, repoErr(err, "Order not found", "failed to update order status")
	}
	previous := order.Status
	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	if s.events != nil {
		evt := rabbitmq.OrderStatusUpdated{
			OrderID:   order.ID,
			UserID:    order.UserID,
			From:      previous,
			To:        status,
			UpdatedAt: order.UpdatedAt,
		}
		if err := s.events.PublishOrderStatusUpdated(evt); err != nil {
			s.log.Warn("failed to publish order status event", zap.String("order_id", id), zap.Error(err))
		}
	}
	return order, nil
}
