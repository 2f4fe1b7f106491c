package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, logger: logger}
}

type AdminOrderListInput struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	Search        string
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧。フィルタはANDで重なり、searchだけが
// 注文番号/顧客名/顧客メールのORになる。
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) ([]OrderOutput, int64, error) {
	if in.Page < 1 {
		return nil, 0, errValidation("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return nil, 0, errValidation("invalid limit")
	}
	if in.Status != "" {
		if _, ok := model.ParseOrderStatus(in.Status); !ok {
			return nil, 0, errValidation("invalid status")
		}
	}
	if in.PaymentStatus != "" {
		if _, ok := model.ParsePaymentStatus(in.PaymentStatus); !ok {
			return nil, 0, errValidation("invalid payment_status")
		}
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:          in.Page,
			Limit:         in.Limit,
			Status:        in.Status,
			PaymentStatus: in.PaymentStatus,
			Search:        strings.TrimSpace(in.Search),
		})
		if err != nil {
			u.logger.Error("admin order list failed", zap.Error(err))
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

// ステータス更新。状態機械に無い遷移は拒否する。
// REFUNDEDにするときはpayment_statusも合わせる。
// 遷移は監査ログ（誰が・どの注文を・どこからどこへ）と同一トランザクションで残す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if orderID <= 0 {
		return errValidation("invalid id")
	}

	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return errValidation("invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}
		if err != nil {
			return errInternal()
		}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			return nil
		}

		if !o.Status.CanTransitionTo(next) {
			return errValidation("illegal status transition")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
			}
			u.logger.Error("order status update failed", zap.Int64("order_id", orderID), zap.Error(err))
			return errInternal()
		}

		if next == model.OrderStatusRefunded {
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusRefunded); err != nil {
				u.logger.Error("payment status update failed", zap.Int64("order_id", orderID), zap.Error(err))
				return errInternal()
			}
		}

		before, _ := json.Marshal(map[string]string{"status": string(o.Status)})
		after, _ := json.Marshal(map[string]string{"status": string(next)})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID: actorID,
			Action:      model.AuditActionOrderStatusChange,
			Resource:    model.AuditResourceOrder,
			ResourceID:  orderID,
			BeforeJSON:  string(before),
			AfterJSON:   string(after),
		}); err != nil {
			u.logger.Error("audit log write failed", zap.Int64("order_id", orderID), zap.Error(err))
			return errInternal()
		}

		u.logger.Info("order status changed",
			zap.Int64("order_id", orderID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(next)))
		return nil
	})
}
