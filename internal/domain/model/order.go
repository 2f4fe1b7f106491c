package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// 注文。作成後は金額・明細は不変で、statusとpayment_statusだけが遷移する。
// Subtotal/Tax/Totalは作成時に確定し、以後再計算しない。
type Order struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Number        string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"number"`
	UserID        *int64          `gorm:"index" json:"user_id,omitempty"`
	OwnerKey      string          `gorm:"type:varchar(255);not null;index;uniqueIndex:ux_orders_owner_idem,priority:1" json:"-"`
	CustomerName  string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string          `gorm:"type:varchar(255);not null" json:"customer_email"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	// 冪等キーの一意性はowner単位。別ownerが同じキーを使っても衝突しない。
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_owner_idem,priority:2" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文作成後の管理遷移:
//
//	PENDING → CONFIRMED → PROCESSING → SHIPPED → DELIVERED
//
// CANCELLEDはSHIPPED前ならどこからでも、REFUNDEDはCONFIRMED以降ならどこからでも。
var orderStatusNext = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// CanTransitionTo は管理側のステータス遷移が許されるかを判定する。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderStatusNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return OrderStatus(s), true
	}
	return "", false
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}
