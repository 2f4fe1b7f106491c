package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AdminAuditLogUsecase は管理者操作ログの参照。
type AdminAuditLogUsecase struct {
	auditLogs repo.AuditLogRepository
	logger    *zap.Logger
}

func NewAdminAuditLogUsecase(auditLogs repo.AuditLogRepository, logger *zap.Logger) *AdminAuditLogUsecase {
	return &AdminAuditLogUsecase{auditLogs: auditLogs, logger: logger}
}

type AdminAuditLogListInput struct {
	Page        int
	Limit       int
	ActorUserID *int64
	Action      string
	Resource    string
	ResourceID  *int64
}

func (u *AdminAuditLogUsecase) List(ctx context.Context, in AdminAuditLogListInput) ([]model.AuditLog, int64, error) {
	if in.Page < 1 {
		return nil, 0, errValidation("invalid page")
	}
	if in.Limit < 1 || in.Limit > 200 {
		return nil, 0, errValidation("invalid limit")
	}

	f := repo.AuditLogFilter{
		Page:        in.Page,
		Limit:       in.Limit,
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
	}

	if s := strings.TrimSpace(in.Action); s != "" {
		a, ok := model.ParseAuditAction(s)
		if !ok {
			return nil, 0, errValidation("invalid action")
		}
		f.Action = &a
	}
	if s := strings.TrimSpace(in.Resource); s != "" {
		r, ok := model.ParseAuditResource(s)
		if !ok {
			return nil, 0, errValidation("invalid resource")
		}
		f.Resource = &r
	}

	logs, total, err := u.auditLogs.List(ctx, f)
	if err != nil {
		u.logger.Error("audit log list failed", zap.Error(err))
		return nil, 0, errInternal()
	}
	return logs, total, nil
}
