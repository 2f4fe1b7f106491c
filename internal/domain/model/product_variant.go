package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品バリアント（色・サイズなど）。
// Priceがnilなら親商品の価格を使う。
type ProductVariant struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64            `gorm:"not null;index" json:"product_id"`
	SKU       string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price,omitempty"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
