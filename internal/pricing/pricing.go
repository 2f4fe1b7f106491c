package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/cartstore"
)

// 参照した商品/バリアントの価格が解決できない。
// 呼び出し側は計算を中断して返す（0円で握りつぶさない）。
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceLookup は単価の解決先。バリアント指定かつバリアントに価格があれば
// そちらを、無ければ親商品の価格を返す。
type PriceLookup interface {
	UnitPrice(ctx context.Context, productID int64, variantID *int64) (decimal.Decimal, error)
}

type Totals struct {
	ItemCount int64           `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotals はカート明細から小計・税・合計を出す。
// 丸めは途中の加算では行わず、最後に2桁（四捨五入）で1回だけ。
func ComputeTotals(ctx context.Context, items []cartstore.LineItem, lookup PriceLookup, taxRate decimal.Decimal) (Totals, error) {
	var count int64
	subtotal := decimal.Zero

	for _, it := range items {
		unit, err := lookup.UnitPrice(ctx, it.ProductID, it.VariantID)
		if err != nil {
			return Totals{}, err
		}

		count += it.Quantity
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(it.Quantity)))
	}

	tax := subtotal.Mul(taxRate)

	return Totals{
		ItemCount: count,
		Subtotal:  subtotal.Round(2),
		Tax:       tax.Round(2),
		Total:     subtotal.Add(tax).Round(2),
	}, nil
}
