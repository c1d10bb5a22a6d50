package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. DELIVERED and CANCELLED are terminal.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	PaymentMethodCreditCard = "CREDIT_CARD"
	PaymentStatusCompleted  = "COMPLETED"
)

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// TerminalOrderStatus reports whether no further transitions are allowed from status.
func TerminalOrderStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// OrderItem is an immutable snapshot of a purchased product variant.
type OrderItem struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string          `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID       string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	ProductName     string          `json:"productName" gorm:"type:varchar(200)"`
	ProductCategory string          `json:"productCategory" gorm:"type:varchar(100)"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	Size            string          `json:"size" gorm:"type:varchar(20)"`
	Color           string          `json:"color" gorm:"type:varchar(40)"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(16,2);not null"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Order represents a placed customer order.
type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string          `json:"userId" gorm:"type:varchar(36);not null;index"`
	User          *UserSummary    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AddressID     string          `json:"addressId" gorm:"type:varchar(36);not null"`
	Address       *Address        `json:"address,omitempty" gorm:"foreignKey:AddressID"`
	CouponID      *string         `json:"couponId" gorm:"type:varchar(36)"`
	Coupon        *Coupon         `json:"coupon,omitempty" gorm:"foreignKey:CouponID"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(16,2);not null"`
	Status        string          `json:"status" gorm:"type:varchar(20);not null;default:PENDING;index"`
	PaymentMethod string          `json:"paymentMethod" gorm:"type:varchar(30)"`
	PaymentStatus string          `json:"paymentStatus" gorm:"type:varchar(30)"`
	PaymentID     string          `json:"paymentId" gorm:"type:varchar(100)"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}
