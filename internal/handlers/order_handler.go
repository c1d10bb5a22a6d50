package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/pkg/payment"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	service  *services.OrderService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, guards Guards, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		guards:   guards,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orders := router.Group("/order", h.guards.Auth)
	orders.Post("/create-payment-intent", h.HandleCreatePaymentIntent)
	orders.Post("/capture-payment", h.HandleCapturePayment)
	orders.Post("/create-final-order", h.HandleCreateFinalOrder)
	orders.Get("/get-single-order/:orderId", h.HandleGetOrderByID)
	orders.Get("/get-order-by-user-id", h.HandleGetOrdersByUser)
	orders.Get("/get-all-orders-for-admin", h.guards.Admin, h.HandleGetAllOrders)
	orders.Put("/:orderId/status", h.guards.Admin, h.HandleUpdateOrderStatus)
}

type paymentIntentRequest struct {
	Items []payment.LineItem `json:"items" validate:"required,min=1,dive"`
	Total decimal.Decimal    `json:"total"`
}

type capturePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type orderItemRequest struct {
	ProductID       string          `json:"productId" validate:"required"`
	ProductName     string          `json:"productName"`
	ProductCategory string          `json:"productCategory"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	Size            string          `json:"size"`
	Color           string          `json:"color"`
	Price           decimal.Decimal `json:"price"`
}

type finalOrderRequest struct {
	Items     []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	AddressID string             `json:"addressId" validate:"required"`
	CouponID  string             `json:"couponId"`
	Total     decimal.Decimal    `json:"total"`
	PaymentID string             `json:"paymentId"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleCreatePaymentIntent opens a payment with the configured provider and
// relays the provider's response.
func (h *OrderHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	var req paymentIntentRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	resp, err := h.service.CreatePaymentIntent(c.UserContext(), payment.IntentRequest{Items: req.Items, Total: req.Total})
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(resp)
}

// HandleCapturePayment captures an approved provider order.
func (h *OrderHandler) HandleCapturePayment(c *fiber.Ctx) error {
	var req capturePaymentRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	resp, err := h.service.CapturePayment(c.UserContext(), req.OrderID)
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(resp)
}

// HandleCreateFinalOrder records a paid order.
func (h *OrderHandler) HandleCreateFinalOrder(c *fiber.Ctx) error {
	var req finalOrderRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	in := services.FinalOrderInput{
		Items:     make([]services.OrderItemInput, 0, len(req.Items)),
		AddressID: req.AddressID,
		CouponID:  req.CouponID,
		Total:     req.Total,
		PaymentID: req.PaymentID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductCategory: it.ProductCategory,
			Quantity:        it.Quantity,
			Size:            it.Size,
			Color:           it.Color,
			Price:           it.Price,
		})
	}

	userID := middleware.UserID(c)
	order, err := h.service.CreateFinalOrder(c.UserContext(), userID, in)
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}

	h.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "order": order})
}

// HandleGetOrderByID returns one of the signed-in user's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), middleware.UserID(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// HandleGetOrdersByUser lists the signed-in user's orders.
func (h *OrderHandler) HandleGetOrdersByUser(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "orders": orders})
}

// HandleGetAllOrders lists every order for administrators.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "orders": orders})
}

// HandleUpdateOrderStatus moves an order to a new status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req orderStatusRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("orderId"), req.Status)
	if err != nil {
		return respondError(c, h.log, err, "Unexpected error occured!")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated successfully",
		"order":   order,
	})
}
