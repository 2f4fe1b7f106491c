package pricing

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/cartstore"
)

// テスト用の固定価格表
type tableLookup struct {
	prices map[int64]string
}

func (l tableLookup) UnitPrice(ctx context.Context, productID int64, variantID *int64) (decimal.Decimal, error) {
	s, ok := l.prices[productID]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("product %d: %w", productID, ErrPriceUnavailable)
	}
	return decimal.RequireFromString(s), nil
}

func TestComputeTotals(t *testing.T) {
	lookup := tableLookup{prices: map[int64]string{
		1: "10.00",
		2: "15.00",
	}}

	items := []cartstore.LineItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}

	totals, err := ComputeTotals(context.Background(), items, lookup, decimal.RequireFromString("0.08"))

	assert.NoError(t, err)
	assert.Equal(t, int64(3), totals.ItemCount)
	assert.Equal(t, "35.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2.80", totals.Tax.StringFixed(2))
	assert.Equal(t, "37.80", totals.Total.StringFixed(2))
}

// 丸めは最後に1回だけ。途中で丸めると結果がずれる値で確認する。
func TestComputeTotalsRoundsOnce(t *testing.T) {
	lookup := tableLookup{prices: map[int64]string{
		1: "0.333",
	}}

	items := []cartstore.LineItem{{ProductID: 1, Quantity: 3}}

	totals, err := ComputeTotals(context.Background(), items, lookup, decimal.RequireFromString("0.08"))

	assert.NoError(t, err)
	// 0.333*3 = 0.999 → 1.00（行単位で丸めていたら0.99になる）
	assert.Equal(t, "1.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.08", totals.Tax.StringFixed(2))
	assert.Equal(t, "1.08", totals.Total.StringFixed(2))
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	lookup := tableLookup{prices: map[int64]string{}}

	totals, err := ComputeTotals(context.Background(), nil, lookup, decimal.RequireFromString("0.08"))

	assert.NoError(t, err)
	assert.Equal(t, int64(0), totals.ItemCount)
	assert.Equal(t, "0.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", totals.Total.StringFixed(2))
}

// 価格が引けない商品が1つでもあれば合計は返さない
func TestComputeTotalsPriceUnavailable(t *testing.T) {
	lookup := tableLookup{prices: map[int64]string{1: "10.00"}}

	items := []cartstore.LineItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	}

	_, err := ComputeTotals(context.Background(), items, lookup, decimal.RequireFromString("0.08"))

	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

// 同じカートなら何度計算しても同じ合計になる
func TestComputeTotalsDeterministic(t *testing.T) {
	lookup := tableLookup{prices: map[int64]string{
		1: "19.99",
		2: "4.50",
		3: "120.00",
	}}

	items := []cartstore.LineItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
		{ProductID: 3, Quantity: 1},
	}

	first, err := ComputeTotals(context.Background(), items, lookup, decimal.RequireFromString("0.08"))
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := ComputeTotals(context.Background(), items, lookup, decimal.RequireFromString("0.08"))
		assert.NoError(t, err)
		assert.True(t, first.Total.Equal(again.Total))
		assert.True(t, first.Subtotal.Equal(again.Subtotal))
		assert.True(t, first.Tax.Equal(again.Tax))
	}
}
