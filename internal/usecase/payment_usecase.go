package usecase

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// PaymentUsecase は決済プロバイダからのwebhookを処理する。
// 注文のpayment_statusを確定させ、支払い完了なら注文をCONFIRMEDへ進める。
type PaymentUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewPaymentUsecase(tx repo.TransactionManager, logger *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, logger: logger}
}

type WebhookInput struct {
	ProviderRef string
	// completed / failed / refunded
	Status string
}

// HandleProviderEvent は何度届いても同じ結果に収束する。
// webhookはいつ届くかわからない前提（注文は長くPROCESSINGのままでよい）。
func (u *PaymentUsecase) HandleProviderEvent(ctx context.Context, in WebhookInput) error {
	if in.ProviderRef == "" {
		return errValidation("provider_ref is required")
	}

	var status model.PaymentStatus
	switch in.Status {
	case "completed":
		status = model.PaymentStatusCompleted
	case "failed":
		status = model.PaymentStatusFailed
	case "refunded":
		status = model.PaymentStatusRefunded
	default:
		return errValidation("invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByProviderRef(ctx, in.ProviderRef)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "unknown provider_ref")
		}
		if err != nil {
			return errInternal()
		}

		if p.Status == status {
			// 再送。もう処理済み。
			return nil
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, status); err != nil {
			u.logger.Error("payment status update failed", zap.Int64("payment_id", p.ID), zap.Error(err))
			return errInternal()
		}
		if err := r.Orders().UpdatePaymentStatus(ctx, p.OrderID, status); err != nil {
			u.logger.Error("order payment status update failed", zap.Int64("order_id", p.OrderID), zap.Error(err))
			return errInternal()
		}

		// 支払い完了でPENDING→CONFIRMED。それ以外の遷移は管理操作に任せる。
		if status == model.PaymentStatusCompleted {
			o, err := r.Orders().FindByID(ctx, p.OrderID)
			if err != nil {
				return errInternal()
			}
			if o.Status == model.OrderStatusPending && o.Status.CanTransitionTo(model.OrderStatusConfirmed) {
				if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusConfirmed); err != nil {
					return errInternal()
				}
			}
		}

		return nil
	})
}
