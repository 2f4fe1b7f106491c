package unit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// 書き換え可能な商品カタログ（価格変更・非公開化のシナリオ用）
type fakeCatalogRepo struct {
	products map[int64]model.Product
	variants map[int64]model.ProductVariant
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		products: map[int64]model.Product{},
		variants: map[int64]model.ProductVariant{},
	}
}

func (f *fakeCatalogRepo) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	v, ok := f.variants[variantID]
	if !ok {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	return v, nil
}

func (f *fakeCatalogRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeCatalogRepo) ListAdmin(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeCatalogRepo) UpsertBySKU(ctx context.Context, p model.Product) (model.Product, error) {
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalogRepo) UpsertVariantBySKU(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	f.variants[v.ID] = v
	return v, nil
}

func newCartFixture() (*usecase.CartUsecase, *fakeCatalogRepo, *cartstore.MemoryStore) {
	catalogRepo := newFakeCatalogRepo()
	catalogRepo.products[1] = model.Product{ID: 1, Name: "Mug", Price: price("10.00"), IsActive: true}
	catalogRepo.products[2] = model.Product{ID: 2, Name: "Poster", Price: price("15.00"), IsActive: true}

	store := cartstore.NewMemoryStore()
	uc := usecase.NewCartUsecase(store, pricing.NewCatalogLookup(catalogRepo), taxRate, zap.NewNop())
	return uc, catalogRepo, store
}

// Test: カートの合計計算
func TestAddToCartComputesTotals(t *testing.T) {
	uc, _, _ := newCartFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)

	out, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 2, Quantity: 1})
	assert.NoError(t, err)

	assert.Equal(t, int64(3), out.ItemCount)
	assert.Equal(t, "35.00", out.Subtotal.StringFixed(2))
	assert.Equal(t, "2.80", out.Tax.StringFixed(2))
	assert.Equal(t, "37.80", out.Total.StringFixed(2))
}

// Test: 同一商品の追加は数量加算
func TestAddToCartAccumulates(t *testing.T) {
	uc, _, _ := newCartFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)

	out, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)

	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(3), out.Items[0].Quantity)
}

// Test: 存在しない商品は追加できない
func TestAddToCartUnknownProduct(t *testing.T) {
	uc, _, _ := newCartFixture()

	_, err := uc.AddToCart(context.Background(), model.GuestIdentity("g1"),
		usecase.AddCartInput{ProductID: 999, Quantity: 1})

	assertHTTPCode(t, err, 404, usecase.CodeProductNotFound)
}

func TestAddToCartInvalidQuantity(t *testing.T) {
	uc, _, _ := newCartFixture()

	_, err := uc.AddToCart(context.Background(), model.GuestIdentity("g1"),
		usecase.AddCartInput{ProductID: 1, Quantity: 0})

	assertHTTPCode(t, err, 400, usecase.CodeValidation)
}

// Test: 数量0への変更は削除と同じ
func TestUpdateItemZeroRemoves(t *testing.T) {
	uc, _, _ := newCartFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)

	out, err := uc.UpdateItem(ctx, id, 1, nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, "0.00", out.Total.StringFixed(2))
}

// Test: カート内の商品が非公開になったら合計は返さない
func TestGetCartPriceUnavailable(t *testing.T) {
	uc, catalogRepo, _ := newCartFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)

	// 追加後に非公開化
	p := catalogRepo.products[1]
	p.IsActive = false
	catalogRepo.products[1] = p

	_, err = uc.GetCart(ctx, id)
	assertHTTPCode(t, err, 409, usecase.CodePriceUnavailable)
}

// Test: 合計は読み出し時の現在価格で計算し直す
func TestGetCartReflectsPriceChange(t *testing.T) {
	uc, catalogRepo, _ := newCartFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, id, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)

	p := catalogRepo.products[1]
	p.Price = price("20.00")
	catalogRepo.products[1] = p

	out, err := uc.GetCart(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "20.00", out.Subtotal.StringFixed(2))
}

// Test: ゲストカートのユーザーカートへの併合
func TestMergeGuestCartIntoUser(t *testing.T) {
	uc, _, store := newCartFixture()
	ctx := context.Background()
	guest := model.GuestIdentity("g1")
	user := model.UserIdentity(7)

	_, err := uc.AddToCart(ctx, guest, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)
	_, err = uc.AddToCart(ctx, user, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)

	assert.NoError(t, uc.MergeGuestCart(ctx, "g1", 7))

	out, err := uc.GetCart(ctx, user)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	// 1 + 2 = 3
	assert.Equal(t, int64(3), out.Items[0].Quantity)

	guestItems, err := store.GetItems(ctx, guest)
	assert.NoError(t, err)
	assert.Empty(t, guestItems)
}

// Test: 空トークンの併合は何もしない
func TestMergeGuestCartEmptyTokenIsNoop(t *testing.T) {
	uc, _, _ := newCartFixture()

	assert.NoError(t, uc.MergeGuestCart(context.Background(), "", 7))
}
