package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// 外部プロバイダ側で拒否された（カード不正など）
var ErrCaptureRefused = errors.New("capture refused")

type CaptureRequest struct {
	OrderNumber string
	MethodRef   string
	Amount      decimal.Decimal
	Currency    string
}

type CaptureResult struct {
	// プロバイダ側の取引参照。webhookの突き合わせに使う。
	ProviderRef string
	// 受理直後はまだ確定していない。確定/失敗はwebhookで届く。
	Accepted bool
}

// Provider は外部決済の窓口。captureの開始だけを同期で行い、
// 最終結果（completed/failed）は後からwebhookで届く。
type Provider interface {
	Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error)
}
