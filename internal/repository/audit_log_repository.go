package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 監査ログの絞り込み条件。nilの条件は無視する。
type AuditLogFilter struct {
	ActorUserID *int64
	Action      *model.AuditAction
	Resource    *model.AuditResource
	ResourceID  *int64
	Page        int
	Limit       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
