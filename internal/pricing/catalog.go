package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	repo "storefront/internal/repository"
)

// 解決済みの1明細分。注文スナップショットの材料になる。
type ResolvedLine struct {
	UnitPrice decimal.Decimal
	Name      string
}

// CatalogLookup は商品リポジトリを価格解決に使うPriceLookup実装。
// 同じ商品への同時解決はsingleflightでまとめる。
type CatalogLookup struct {
	products repo.ProductRepository
	sfg      singleflight.Group
}

func NewCatalogLookup(products repo.ProductRepository) *CatalogLookup {
	return &CatalogLookup{products: products}
}

var _ PriceLookup = (*CatalogLookup)(nil)

func (l *CatalogLookup) UnitPrice(ctx context.Context, productID int64, variantID *int64) (decimal.Decimal, error) {
	line, err := l.Resolve(ctx, productID, variantID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return line.UnitPrice, nil
}

// Resolve は単価と表示名を解決する。
// バリアント指定かつバリアント側に価格があればそちらが優先。
// 商品/バリアントが見つからない・非公開ならErrPriceUnavailable。
func (l *CatalogLookup) Resolve(ctx context.Context, productID int64, variantID *int64) (ResolvedLine, error) {
	key := fmt.Sprintf("p:%d", productID)
	if variantID != nil {
		key = fmt.Sprintf("p:%d/v:%d", productID, *variantID)
	}

	v, err, _ := l.sfg.Do(key, func() (interface{}, error) {
		return l.resolve(ctx, productID, variantID)
	})
	if err != nil {
		return ResolvedLine{}, err
	}
	return v.(ResolvedLine), nil
}

func (l *CatalogLookup) resolve(ctx context.Context, productID int64, variantID *int64) (ResolvedLine, error) {
	p, err := l.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ResolvedLine{}, fmt.Errorf("product %d: %w", productID, ErrPriceUnavailable)
	}
	if err != nil {
		return ResolvedLine{}, err
	}
	if !p.IsActive {
		return ResolvedLine{}, fmt.Errorf("product %d inactive: %w", productID, ErrPriceUnavailable)
	}

	if variantID == nil {
		return ResolvedLine{UnitPrice: p.Price, Name: p.Name}, nil
	}

	variant, err := l.products.FindVariantByID(ctx, *variantID)
	if errors.Is(err, repo.ErrNotFound) {
		return ResolvedLine{}, fmt.Errorf("variant %d: %w", *variantID, ErrPriceUnavailable)
	}
	if err != nil {
		return ResolvedLine{}, err
	}
	if variant.ProductID != productID || !variant.IsActive {
		return ResolvedLine{}, fmt.Errorf("variant %d: %w", *variantID, ErrPriceUnavailable)
	}

	price := p.Price
	if variant.Price != nil {
		price = *variant.Price
	}

	return ResolvedLine{
		UnitPrice: price,
		Name:      p.Name + " / " + variant.Name,
	}, nil
}
