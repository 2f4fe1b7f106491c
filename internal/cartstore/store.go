package cartstore

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	// 数量が正の整数でない
	ErrInvalidQuantity = errors.New("invalid quantity")
	// identityが不正（ゲストトークンもユーザーIDも無い等）
	ErrInvalidIdentity = errors.New("invalid identity")
)

// LineItem はバックエンドに依らないカート明細の表現。
type LineItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// Store はidentityキーのカート保管契約。
// バックエンド（DB / インメモリ）はこの契約の後ろで差し替え可能。
// 同一identityへの読み書きはバックエンド側で直列化される。
type Store interface {
	// 同じ(product, variant)があれば数量加算、無ければ追加。qtyは正の整数。
	AddItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error

	// 該当明細が無ければ何もしない（エラーにしない）。
	RemoveItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64) error

	// qty <= 0 はRemoveItemと同じ。それ以外は数量を上書き（加算ではない）。
	UpdateQuantity(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error

	// 未知のidentityは空を返す（エラーにしない）。
	GetItems(ctx context.Context, id model.CartIdentity) ([]LineItem, error)

	// 冪等。
	Clear(ctx context.Context, id model.CartIdentity) error

	// 注文確定後の後始末。冪等。
	// DBバックエンドではカートをCHECKED_OUTへ退役させ、次の操作は新しいカートになる。
	Checkout(ctx context.Context, id model.CartIdentity) error

	// fromの明細をAddItemの意味でtoへ併合し、最後にfromを空にする。
	// 実行中はfromへの並行アクセスを遮断する。fromが空なら何もしない（冪等）。
	Merge(ctx context.Context, from model.CartIdentity, to model.CartIdentity) error
}
