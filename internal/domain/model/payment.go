package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 決済レコード。外部プロバイダの参照IDとステータスを持つ。
// 注文1件に対して再試行で複数できることがある。
type Payment struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	ProviderRef string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"provider_ref"`
	MethodRef   string          `gorm:"type:varchar(255);not null" json:"-"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status      PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
