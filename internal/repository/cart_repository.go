package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	// owner_keyのACTIVEカートを取得し、無ければ作る。行ロックを取る。
	GetOrCreateActiveByOwner(ctx context.Context, ownerKey string) (model.Cart, error)
	FindActiveByOwner(ctx context.Context, ownerKey string) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	// 明細を全削除。冪等。
	Clear(ctx context.Context, cartID int64) error
}
