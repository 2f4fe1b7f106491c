package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	// 注文番号 / 顧客名 / 顧客メールへの部分一致（大文字小文字無視）
	Search string
}

type OrderRepository interface {
	// 注文を作成して、IDから採番したNumberを入れて返す。
	// idempotency_keyの一意制約に当たったらErrConflict。
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByOwner(ctx context.Context, ownerKey string, page int, limit int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error

	// 同じキーなら同じ注文を返すための検索
	FindByIdempotencyKey(ctx context.Context, ownerKey string, key string) (model.Order, bool, error)
	// 管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
