package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一(product, variant)は数量加算
	UpsertAdd(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64) error
	// 数量を上書き。行が無ければErrNotFound。
	SetQuantity(ctx context.Context, cartID int64, productID int64, variantID *int64, qty int64) error
	// 行が無ければ何もしない（エラーにしない）。
	DeleteLine(ctx context.Context, cartID int64, productID int64, variantID *int64) error
}
