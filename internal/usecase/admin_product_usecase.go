package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AdminProductUsecase は商品の管理操作。
// 取り込みはSKUキーの冪等upsertで、何度流しても同じ状態に収束する
// （場当たりな修正スクリプトの置き換え）。
type AdminProductUsecase struct {
	productRepo repo.ProductRepository
	auditLogs   repo.AuditLogRepository
	logger      *zap.Logger
}

func NewAdminProductUsecase(productRepo repo.ProductRepository, auditLogs repo.AuditLogRepository, logger *zap.Logger) *AdminProductUsecase {
	return &AdminProductUsecase{productRepo: productRepo, auditLogs: auditLogs, logger: logger}
}

type UpsertVariantInput struct {
	SKU      string
	Name     string
	Price    *decimal.Decimal
	IsActive bool
}

type UpsertProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	IsActive    bool
	Variants    []UpsertVariantInput
}

func (u *AdminProductUsecase) Upsert(ctx context.Context, actorID int64, in UpsertProductInput) (model.Product, error) {
	if strings.TrimSpace(in.SKU) == "" {
		return model.Product{}, errValidation("sku is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, errValidation("name is required")
	}
	if in.Price.IsNegative() {
		return model.Product{}, errValidation("price must be >= 0")
	}
	for _, v := range in.Variants {
		if strings.TrimSpace(v.SKU) == "" || strings.TrimSpace(v.Name) == "" {
			return model.Product{}, errValidation("variant sku and name are required")
		}
		if v.Price != nil && v.Price.IsNegative() {
			return model.Product{}, errValidation("variant price must be >= 0")
		}
	}

	p, err := u.productRepo.UpsertBySKU(ctx, model.Product{
		SKU:         strings.TrimSpace(in.SKU),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
	})
	if err != nil {
		u.logger.Error("product upsert failed", zap.String("sku", in.SKU), zap.Error(err))
		return model.Product{}, errInternal()
	}

	for _, v := range in.Variants {
		saved, err := u.productRepo.UpsertVariantBySKU(ctx, model.ProductVariant{
			ProductID: p.ID,
			SKU:       strings.TrimSpace(v.SKU),
			Name:      strings.TrimSpace(v.Name),
			Price:     v.Price,
			IsActive:  v.IsActive,
		})
		if err != nil {
			u.logger.Error("variant upsert failed", zap.String("sku", v.SKU), zap.Error(err))
			return model.Product{}, errInternal()
		}
		p.Variants = append(p.Variants, saved)
	}

	// 監査ログ。upsertなので変更前の状態は持たない。
	after, _ := json.Marshal(map[string]any{
		"sku":       p.SKU,
		"price":     p.Price.StringFixed(2),
		"is_active": p.IsActive,
	})
	if err := u.auditLogs.Create(ctx, model.AuditLog{
		ActorUserID: actorID,
		Action:      model.AuditActionProductUpsert,
		Resource:    model.AuditResourceProduct,
		ResourceID:  p.ID,
		AfterJSON:   string(after),
	}); err != nil {
		u.logger.Error("audit log write failed", zap.Int64("product_id", p.ID), zap.Error(err))
		return model.Product{}, errInternal()
	}

	return p, nil
}

type AdminProductListInput struct {
	Page  int
	Limit int
	Q     string
}

// 管理者一覧。非公開の商品も管理対象として返す。
func (u *AdminProductUsecase) List(ctx context.Context, in AdminProductListInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, errValidation("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, errValidation("invalid limit")
	}

	items, total, err := u.productRepo.ListAdmin(ctx, repo.ProductListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
	})
	if err != nil {
		u.logger.Error("admin product list failed", zap.Error(err))
		return ProductListOutput{}, errInternal()
	}

	return ProductListOutput{Items: items, Total: total}, nil
}
