package model

import "time"

// カートの明細。
// (cart_id, product_id, variant_id) で1行。同じ組み合わせの追加は数量加算。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;index" json:"cart_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	VariantID *int64    `gorm:"index" json:"variant_id,omitempty"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// SameLine は同一明細（商品×バリアント）かどうか。
func (ci CartItem) SameLine(productID int64, variantID *int64) bool {
	if ci.ProductID != productID {
		return false
	}
	if ci.VariantID == nil && variantID == nil {
		return true
	}
	if ci.VariantID == nil || variantID == nil {
		return false
	}
	return *ci.VariantID == *variantID
}
