package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", productID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	var v model.ProductVariant

	err := r.db.WithContext(ctx).Where("id = ?", variantID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ProductVariant{}, err
	}
	return v, nil
}

// 公開商品のみを、検索/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return r.list(ctx, q, true)
}

// 管理者用一覧。非公開（is_active=false）の商品も返す。
func (r *ProductGormRepository) ListAdmin(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return r.list(ctx, q, false)
}

func (r *ProductGormRepository) list(ctx context.Context, q repo.ProductListQuery, activeOnly bool) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ?", like)
	}

	// 価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Preload("Variants").Limit(q.Limit).Offset(offset).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// SKUで冪等upsert。何度流しても同じ結果になる（seeder用）。
func (r *ProductGormRepository) UpsertBySKU(ctx context.Context, p model.Product) (model.Product, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "is_active", "updated_at"}),
		}).
		Create(&p).Error
	if err != nil {
		return model.Product{}, err
	}

	// ON CONFLICT更新時はIDが入らないことがあるので引き直す
	var saved model.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", p.SKU).First(&saved).Error; err != nil {
		return model.Product{}, err
	}
	return saved, nil
}

func (r *ProductGormRepository) UpsertVariantBySKU(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "is_active", "updated_at"}),
		}).
		Create(&v).Error
	if err != nil {
		return model.ProductVariant{}, err
	}

	var saved model.ProductVariant
	if err := r.db.WithContext(ctx).Where("sku = ?", v.SKU).First(&saved).Error; err != nil {
		return model.ProductVariant{}, err
	}
	return saved, nil
}
