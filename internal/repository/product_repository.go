package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約に当たった（同時実行で同じキーが入った等）
var ErrConflict = errors.New("conflict")

type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error)
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)

	// 管理者用。is_activeを問わず返す。
	ListAdmin(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)

	// SKUで冪等upsert。既存なら更新、無ければ作成して返す。
	UpsertBySKU(ctx context.Context, p model.Product) (model.Product, error)
	UpsertVariantBySKU(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error)
}
