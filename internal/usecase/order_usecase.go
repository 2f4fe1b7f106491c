package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
)

// 決済captureの開始に使うタイムアウト。HTTPレスポンスはこれを待たない。
const captureTimeout = 30 * time.Second

type OrderUsecase struct {
	tx        repo.TransactionManager
	store     cartstore.Store
	catalog   *pricing.CatalogLookup
	users     repo.UserRepository
	provider  payment.Provider
	publisher events.Publisher
	taxRate   decimal.Decimal
	logger    *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	store cartstore.Store,
	catalog *pricing.CatalogLookup,
	users repo.UserRepository,
	provider payment.Provider,
	publisher events.Publisher,
	taxRate decimal.Decimal,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		store:     store,
		catalog:   catalog,
		users:     users,
		provider:  provider,
		publisher: publisher,
		taxRate:   taxRate,
		logger:    logger,
	}
}

type PlaceOrderInput struct {
	PaymentMethodRef string
	IdempotencyKey   string
	// ゲスト注文用。ログイン済みならユーザーの登録情報を使う。
	CustomerName  string
	CustomerEmail string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	Number        string            `json:"number"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Total         decimal.Decimal   `json:"total"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートのスナップショットから注文を作る。
//
// レスポンスが約束するのは注文の永続化までで、決済の完了ではない。
// captureは注文コミット後に非同期で開始し、確定はwebhookで届く。
// カートのクリアは注文が永続化された後にだけ行う。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, id model.CartIdentity, in PlaceOrderInput) (OrderOutput, error) {
	if !id.Valid() {
		return OrderOutput{}, errUnauthorized()
	}
	if strings.TrimSpace(in.PaymentMethodRef) == "" {
		return OrderOutput{}, errValidation("payment_method_ref is required")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	if len(key) > 255 {
		return OrderOutput{}, errValidation("invalid idempotency_key")
	}

	name, email, err := u.customerInfo(ctx, id, in)
	if err != nil {
		return OrderOutput{}, err
	}

	// カートスナップショット
	items, err := u.store.GetItems(ctx, id)
	if err != nil {
		u.logger.Error("cart read failed", zap.String("identity", id.Key()), zap.Error(err))
		return OrderOutput{}, errInternal()
	}
	if len(items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
	}

	// 価格解決と合計。引けない商品があったら中断して返す。
	orderItems := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		line, err := u.catalog.Resolve(ctx, it.ProductID, it.VariantID)
		if err != nil {
			if errors.Is(err, pricing.ErrPriceUnavailable) {
				return OrderOutput{}, NewHTTPError(http.StatusConflict, CodePriceUnavailable, "price unavailable")
			}
			u.logger.Error("price resolve failed", zap.Int64("product_id", it.ProductID), zap.Error(err))
			return OrderOutput{}, errInternal()
		}

		orderItems = append(orderItems, model.OrderItem{
			ProductID:           it.ProductID,
			VariantID:           it.VariantID,
			ProductNameSnapshot: line.Name,
			UnitPriceSnapshot:   line.UnitPrice,
			Quantity:            it.Quantity,
		})
	}

	totals, err := pricing.ComputeTotals(ctx, items, u.catalog, u.taxRate)
	if err != nil {
		if errors.Is(err, pricing.ErrPriceUnavailable) {
			return OrderOutput{}, NewHTTPError(http.StatusConflict, CodePriceUnavailable, "price unavailable")
		}
		u.logger.Error("totals failed", zap.Error(err))
		return OrderOutput{}, errInternal()
	}

	var out OrderOutput
	var created bool

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ注文を返す
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, id.Key(), key)
		if err != nil {
			return errInternal()
		}
		if found {
			existingItems, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return errInternal()
			}
			out = toOrderOutput(existing, existingItems)
			return nil
		}

		var userID *int64
		if !id.IsGuest() {
			v := id.UserID
			userID = &v
		}

		order, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			OwnerKey:       id.Key(),
			CustomerName:   name,
			CustomerEmail:  email,
			Status:         model.OrderStatusPending,
			PaymentStatus:  model.PaymentStatusPending,
			Subtotal:       totals.Subtotal,
			Tax:            totals.Tax,
			Total:          totals.Total,
			IdempotencyKey: key,
		})
		if errors.Is(err, repo.ErrConflict) {
			// 同時に同じキーが入った。もう一度探して同じ結果を返す。
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, id.Key(), key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return errInternal()
				}
				out = toOrderOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusConflict, CodeConflict, "idempotency conflict")
		}
		if err != nil {
			u.logger.Error("order create failed", zap.Error(err))
			return errInternal()
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			u.logger.Error("order items create failed", zap.Int64("order_id", order.ID), zap.Error(err))
			return errInternal()
		}

		created = true
		out = toOrderOutput(order, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		// 注文が永続化できた後にだけカートを退役させる。
		// 失敗しても注文は返す（カートが残るだけで、注文は失わない）。
		if err := u.store.Checkout(ctx, id); err != nil {
			u.logger.Error("cart checkout after order failed",
				zap.String("identity", id.Key()),
				zap.Int64("order_id", out.ID),
				zap.Error(err))
		}

		if err := u.publisher.PublishOrderCreated(events.OrderCreatedEvent{
			OrderID:     out.ID,
			OrderNumber: out.Number,
			OwnerKey:    id.Key(),
			Total:       out.Total.StringFixed(2),
			CreatedAt:   out.CreatedAt,
		}); err != nil {
			u.logger.Error("order event publish failed", zap.Int64("order_id", out.ID), zap.Error(err))
		}

		// 決済はレスポンスを待たせない
		go u.startCapture(out, in.PaymentMethodRef)
	}

	return out, nil
}

// captureの開始。結果の確定はwebhook（PaymentUsecase）側で行う。
func (u *OrderUsecase) startCapture(o OrderOutput, methodRef string) {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	result, err := u.provider.Capture(ctx, payment.CaptureRequest{
		OrderNumber: o.Number,
		MethodRef:   methodRef,
		Amount:      o.Total,
		Currency:    "USD",
	})

	txErr := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err != nil {
			// 拒否・失敗。注文は消さずFAILEDに遷移させて残す。
			if _, perr := r.Payments().Create(ctx, model.Payment{
				OrderID:     o.ID,
				ProviderRef: "refused:" + uuid.NewString(),
				MethodRef:   methodRef,
				Amount:      o.Total,
				Status:      model.PaymentStatusFailed,
			}); perr != nil {
				return perr
			}
			return r.Orders().UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusFailed)
		}

		if _, perr := r.Payments().Create(ctx, model.Payment{
			OrderID:     o.ID,
			ProviderRef: result.ProviderRef,
			MethodRef:   methodRef,
			Amount:      o.Total,
			Status:      model.PaymentStatusProcessing,
		}); perr != nil {
			return perr
		}
		return r.Orders().UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusProcessing)
	})

	if txErr != nil {
		u.logger.Error("capture bookkeeping failed", zap.Int64("order_id", o.ID), zap.Error(txErr))
	}
	if err != nil {
		u.logger.Warn("payment capture refused", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

func (u *OrderUsecase) customerInfo(ctx context.Context, id model.CartIdentity, in PlaceOrderInput) (string, string, error) {
	if id.IsGuest() {
		name := strings.TrimSpace(in.CustomerName)
		email := strings.TrimSpace(in.CustomerEmail)
		if name == "" || email == "" {
			return "", "", errValidation("customer_name and customer_email are required for guest checkout")
		}
		return name, email, nil
	}

	user, err := u.users.FindByID(ctx, id.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", "", errUnauthorized()
	}
	if err != nil {
		u.logger.Error("user lookup failed", zap.Int64("user_id", id.UserID), zap.Error(err))
		return "", "", errInternal()
	}
	return user.Name, user.Email, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, id model.CartIdentity, page int, limit int) ([]OrderOutput, int64, error) {
	if !id.Valid() {
		return nil, 0, errUnauthorized()
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByOwner(ctx, id.Key(), page, limit)
		if err != nil {
			return errInternal()
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errInternal()
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, id model.CartIdentity, orderID int64) (OrderOutput, error) {
	if !id.Valid() {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, errValidation("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}
		if err != nil {
			return errInternal()
		}

		// 他人の注文は存在しない扱いにする
		if o.OwnerKey != id.Key() {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		Number:        o.Number,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
