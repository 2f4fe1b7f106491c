package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DevProvider は開発・テスト用のProvider。
// method refが"fail:"で始まるときだけ拒否する。それ以外は受理して
// 取引参照を返す（確定はwebhook側のシミュレーションに任せる）。
type DevProvider struct{}

func NewDevProvider() *DevProvider {
	return &DevProvider{}
}

var _ Provider = (*DevProvider)(nil)

func (p *DevProvider) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if strings.HasPrefix(req.MethodRef, "fail:") {
		return CaptureResult{}, ErrCaptureRefused
	}

	return CaptureResult{
		ProviderRef: "TXN-" + uuid.NewString(),
		Accepted:    true,
	}, nil
}
