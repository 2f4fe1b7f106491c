package unit

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Helper
// =====================

var taxRate = decimal.RequireFromString("0.08")

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertHTTPCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	assert.Equal(t, status, he.Status)
	assert.Equal(t, code, he.Code)
}

type orderFixture struct {
	tx       *fakeTxManager
	store    *cartstore.MemoryStore
	products *MockProductRepository
	users    *MockUserRepository
	uc       *usecase.OrderUsecase
}

func newOrderFixture() *orderFixture {
	tx := newFakeTxManager()
	store := cartstore.NewMemoryStore()
	products := new(MockProductRepository)
	users := new(MockUserRepository)

	uc := usecase.NewOrderUsecase(
		tx,
		store,
		pricing.NewCatalogLookup(products),
		users,
		payment.NewDevProvider(),
		events.NopPublisher{},
		taxRate,
		zap.NewNop(),
	)

	return &orderFixture{tx: tx, store: store, products: products, users: users, uc: uc}
}

// 非同期のcapture後処理は来ても来なくてもよい、にしておく
func (f *orderFixture) allowCaptureBookkeeping() {
	f.tx.repos.payments.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil).Maybe()
	f.tx.repos.orders.On("UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

// =====================
// Test: 注文作成
// =====================

// Test: 空カートのcheckoutは注文を作らない
func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newOrderFixture()
	id := model.UserIdentity(1)

	f.users.On("FindByID", mock.Anything, int64(1)).
		Return(model.User{ID: 1, Name: "Alice", Email: "alice@example.com"}, nil)

	_, err := f.uc.PlaceOrder(context.Background(), id, usecase.PlaceOrderInput{
		PaymentMethodRef: "pm_test",
	})

	assertHTTPCode(t, err, 400, usecase.CodeEmptyCart)
	// トランザクションまで到達しない
	assert.Equal(t, 0, f.tx.txCount())
	f.tx.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Test: 合計はカート時点の価格で凍結される
func TestPlaceOrderFreezesTotals(t *testing.T) {
	f := newOrderFixture()
	id := model.UserIdentity(1)
	ctx := context.Background()

	f.products.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Mug", Price: price("10.00"), IsActive: true}, nil)
	f.products.On("FindByID", mock.Anything, int64(2)).
		Return(model.Product{ID: 2, Name: "Poster", Price: price("15.00"), IsActive: true}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).
		Return(model.User{ID: 1, Name: "Alice", Email: "alice@example.com"}, nil)

	assert.NoError(t, f.store.AddItem(ctx, id, 1, nil, 2))
	assert.NoError(t, f.store.AddItem(ctx, id, 2, nil, 1))

	f.tx.repos.orders.On("FindByIdempotencyKey", mock.Anything, id.Key(), "key-1").
		Return(model.Order{}, false, nil)
	f.tx.repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Subtotal.Equal(price("35.00")) &&
			o.Tax.Equal(price("2.80")) &&
			o.Total.Equal(price("37.80")) &&
			o.OwnerKey == id.Key() &&
			o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.CustomerName == "Alice"
	})).Return(model.Order{
		ID:            1,
		Number:        "ORD-00000001",
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		Subtotal:      price("35.00"),
		Tax:           price("2.80"),
		Total:         price("37.80"),
	}, nil)
	f.tx.repos.orderItems.On("CreateBulk", mock.Anything, int64(1), mock.MatchedBy(func(items []model.OrderItem) bool {
		if len(items) != 2 {
			return false
		}
		// スナップショットに名前と単価が入っている
		return items[0].ProductNameSnapshot == "Mug" &&
			items[0].UnitPriceSnapshot.Equal(price("10.00")) &&
			items[0].Quantity == 2
	})).Return(nil)
	f.allowCaptureBookkeeping()

	out, err := f.uc.PlaceOrder(ctx, id, usecase.PlaceOrderInput{
		PaymentMethodRef: "pm_test",
		IdempotencyKey:   "key-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "ORD-00000001", out.Number)
	assert.Equal(t, "37.80", out.Total.StringFixed(2))
	assert.Len(t, out.Items, 2)

	// 注文が永続化された後にカートは空になる
	items, _ := f.store.GetItems(ctx, id)
	assert.Empty(t, items)

	f.tx.repos.orders.AssertExpectations(t)
	f.tx.repos.orderItems.AssertExpectations(t)
}

// Test: 同じIdempotency-Keyの再送は同じ注文を返す
func TestPlaceOrderIdempotentReplay(t *testing.T) {
	f := newOrderFixture()
	id := model.UserIdentity(1)
	ctx := context.Background()

	f.products.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Mug", Price: price("10.00"), IsActive: true}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).
		Return(model.User{ID: 1, Name: "Alice", Email: "alice@example.com"}, nil)

	assert.NoError(t, f.store.AddItem(ctx, id, 1, nil, 1))

	existing := model.Order{ID: 9, Number: "ORD-00000009", OwnerKey: id.Key(), Total: price("10.80")}
	f.tx.repos.orders.On("FindByIdempotencyKey", mock.Anything, id.Key(), "key-dup").
		Return(existing, true, nil)
	f.tx.repos.orderItems.On("ListByOrderID", mock.Anything, int64(9)).
		Return([]model.OrderItem{}, nil)

	out, err := f.uc.PlaceOrder(ctx, id, usecase.PlaceOrderInput{
		PaymentMethodRef: "pm_test",
		IdempotencyKey:   "key-dup",
	})

	assert.NoError(t, err)
	assert.Equal(t, "ORD-00000009", out.Number)

	// 新しい注文は作られず、カートもそのまま残る
	f.tx.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	items, _ := f.store.GetItems(ctx, id)
	assert.Len(t, items, 1)
}

// Test: 価格が引けない商品があればcheckoutは中断
func TestPlaceOrderPriceUnavailable(t *testing.T) {
	f := newOrderFixture()
	id := model.UserIdentity(1)
	ctx := context.Background()

	f.products.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{}, repo.ErrNotFound)
	f.users.On("FindByID", mock.Anything, int64(1)).
		Return(model.User{ID: 1, Name: "Alice", Email: "alice@example.com"}, nil)

	assert.NoError(t, f.store.AddItem(ctx, id, 1, nil, 1))

	_, err := f.uc.PlaceOrder(ctx, id, usecase.PlaceOrderInput{PaymentMethodRef: "pm_test"})

	assertHTTPCode(t, err, 409, usecase.CodePriceUnavailable)
	assert.Equal(t, 0, f.tx.txCount())

	// 中断してもカートは失われない
	items, _ := f.store.GetItems(ctx, id)
	assert.Len(t, items, 1)
}

// Test: ゲストcheckoutは顧客情報が必須
func TestPlaceOrderGuestRequiresCustomerInfo(t *testing.T) {
	f := newOrderFixture()
	id := model.GuestIdentity("g1")
	ctx := context.Background()

	assert.NoError(t, f.store.AddItem(ctx, id, 1, nil, 1))

	_, err := f.uc.PlaceOrder(ctx, id, usecase.PlaceOrderInput{PaymentMethodRef: "pm_test"})

	assertHTTPCode(t, err, 400, usecase.CodeValidation)
}

// Test: 支払い方法が無ければ受け付けない
func TestPlaceOrderRequiresPaymentMethod(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), model.UserIdentity(1), usecase.PlaceOrderInput{})

	assertHTTPCode(t, err, 400, usecase.CodeValidation)
}

// =====================
// Test: 注文照会
// =====================

// Test: 他人の注文は404（存在を漏らさない）
func TestGetMyOrderDetailForeignOrder(t *testing.T) {
	f := newOrderFixture()

	f.tx.repos.orders.On("FindByID", mock.Anything, int64(5)).
		Return(model.Order{ID: 5, OwnerKey: "user:99"}, nil)

	_, err := f.uc.GetMyOrderDetail(context.Background(), model.UserIdentity(1), 5)

	assertHTTPCode(t, err, 404, usecase.CodeOrderNotFound)
	f.tx.repos.orderItems.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestGetMyOrderDetailUnknownOrder(t *testing.T) {
	f := newOrderFixture()

	f.tx.repos.orders.On("FindByID", mock.Anything, int64(5)).
		Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.GetMyOrderDetail(context.Background(), model.UserIdentity(1), 5)

	assertHTTPCode(t, err, 404, usecase.CodeOrderNotFound)
}

func TestListMyOrdersScopedToOwner(t *testing.T) {
	f := newOrderFixture()
	id := model.GuestIdentity("g1")

	f.tx.repos.orders.On("ListByOwner", mock.Anything, id.Key(), 1, 20).
		Return([]model.Order{{ID: 1, Number: "ORD-00000001", OwnerKey: id.Key()}}, int64(1), nil)
	f.tx.repos.orderItems.On("ListByOrderID", mock.Anything, int64(1)).
		Return([]model.OrderItem{}, nil)

	outs, total, err := f.uc.ListMyOrders(context.Background(), id, 1, 20)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, outs, 1)
	f.tx.repos.orders.AssertExpectations(t)
}
