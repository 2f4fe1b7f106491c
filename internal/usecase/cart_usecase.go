package usecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/pricing"
)

// CartUsecase はゲスト/ログイン共通のカート業務ロジック。
// バックエンド（DB/インメモリ）はcartstore.Storeの契約越しにしか触らない。
type CartUsecase struct {
	store   cartstore.Store
	catalog *pricing.CatalogLookup
	taxRate decimal.Decimal
	logger  *zap.Logger
}

func NewCartUsecase(store cartstore.Store, catalog *pricing.CatalogLookup, taxRate decimal.Decimal, logger *zap.Logger) *CartUsecase {
	return &CartUsecase{
		store:   store,
		catalog: catalog,
		taxRate: taxRate,
		logger:  logger,
	}
}

type CartItemResponse struct {
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int64              `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Tax       decimal.Decimal    `json:"tax"`
	Total     decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

// GetCart はカート取得。読み出しのたびに現在価格で合計を計算し直す。
func (u *CartUsecase) GetCart(ctx context.Context, id model.CartIdentity) (CartResponse, error) {
	if !id.Valid() {
		return CartResponse{}, errUnauthorized()
	}

	items, err := u.store.GetItems(ctx, id)
	if err != nil {
		u.logger.Error("cart get failed", zap.String("identity", id.Key()), zap.Error(err))
		return CartResponse{}, errInternal()
	}

	return u.buildCartResponse(ctx, items)
}

// AddToCart はカートに追加（同一の商品×バリアントは数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, id model.CartIdentity, in AddCartInput) (CartResponse, error) {
	if !id.Valid() {
		return CartResponse{}, errUnauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, errValidation("invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, errValidation("invalid quantity")
	}

	// 商品が存在して価格が引けるかを先に確認する
	if _, err := u.catalog.Resolve(ctx, in.ProductID, in.VariantID); err != nil {
		if errors.Is(err, pricing.ErrPriceUnavailable) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
		}
		u.logger.Error("price resolve failed", zap.Int64("product_id", in.ProductID), zap.Error(err))
		return CartResponse{}, errInternal()
	}

	if err := u.store.AddItem(ctx, id, in.ProductID, in.VariantID, in.Quantity); err != nil {
		if errors.Is(err, cartstore.ErrInvalidQuantity) {
			return CartResponse{}, errValidation("invalid quantity")
		}
		u.logger.Error("cart add failed", zap.String("identity", id.Key()), zap.Error(err))
		return CartResponse{}, errInternal()
	}

	return u.GetCart(ctx, id)
}

// UpdateItem は数量の上書き。0以下は削除と同じ。
func (u *CartUsecase) UpdateItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) (CartResponse, error) {
	if !id.Valid() {
		return CartResponse{}, errUnauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, errValidation("invalid product_id")
	}

	if err := u.store.UpdateQuantity(ctx, id, productID, variantID, qty); err != nil {
		u.logger.Error("cart update failed", zap.String("identity", id.Key()), zap.Error(err))
		return CartResponse{}, errInternal()
	}

	return u.GetCart(ctx, id)
}

// RemoveItem は明細削除。該当が無くてもエラーにしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64) (CartResponse, error) {
	if !id.Valid() {
		return CartResponse{}, errUnauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, errValidation("invalid product_id")
	}

	if err := u.store.RemoveItem(ctx, id, productID, variantID); err != nil {
		u.logger.Error("cart remove failed", zap.String("identity", id.Key()), zap.Error(err))
		return CartResponse{}, errInternal()
	}

	return u.GetCart(ctx, id)
}

func (u *CartUsecase) ClearCart(ctx context.Context, id model.CartIdentity) error {
	if !id.Valid() {
		return errUnauthorized()
	}

	if err := u.store.Clear(ctx, id); err != nil {
		u.logger.Error("cart clear failed", zap.String("identity", id.Key()), zap.Error(err))
		return errInternal()
	}
	return nil
}

// MergeGuestCart はログイン成立時に1回だけ呼ばれる。
// ゲストカートの明細をユーザーカートへ加算で併合し、ゲスト側を空にする。
// ゲストが空なら何もしないので、二重に呼ばれても結果は変わらない。
func (u *CartUsecase) MergeGuestCart(ctx context.Context, guestToken string, userID int64) error {
	if guestToken == "" {
		return nil
	}
	if userID <= 0 {
		return errUnauthorized()
	}

	guest := model.GuestIdentity(guestToken)
	user := model.UserIdentity(userID)

	if err := u.store.Merge(ctx, guest, user); err != nil {
		u.logger.Error("guest cart merge failed",
			zap.String("guest", guest.Key()),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return errInternal()
	}
	return nil
}

// 明細の名前と現在価格を引いてレスポンスを組む。
// 価格が引けない商品があれば計算ごと中断する（0円扱いにしない）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, items []cartstore.LineItem) (CartResponse, error) {
	respItems := make([]CartItemResponse, 0, len(items))

	for _, it := range items {
		line, err := u.catalog.Resolve(ctx, it.ProductID, it.VariantID)
		if err != nil {
			if errors.Is(err, pricing.ErrPriceUnavailable) {
				return CartResponse{}, NewHTTPError(http.StatusConflict, CodePriceUnavailable, "price unavailable")
			}
			u.logger.Error("price resolve failed", zap.Int64("product_id", it.ProductID), zap.Error(err))
			return CartResponse{}, errInternal()
		}

		respItems = append(respItems, CartItemResponse{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	totals, err := pricing.ComputeTotals(ctx, items, u.catalog, u.taxRate)
	if err != nil {
		if errors.Is(err, pricing.ErrPriceUnavailable) {
			return CartResponse{}, NewHTTPError(http.StatusConflict, CodePriceUnavailable, "price unavailable")
		}
		u.logger.Error("totals failed", zap.Error(err))
		return CartResponse{}, errInternal()
	}

	return CartResponse{
		Items:     respItems,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
	}, nil
}
