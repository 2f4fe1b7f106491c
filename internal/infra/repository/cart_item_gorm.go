package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// (cart_id, product_id, variant_id)の行を特定する条件。
// variant無し明細はvariant_id IS NULLで突き合わせる。
func lineScope(tx *gorm.DB, cartID int64, productID int64, variantID *int64) *gorm.DB {
	tx = tx.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		return tx.Where("variant_id IS NULL")
	}
	return tx.Where("variant_id = ?", *variantID)
}

func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一(product, variant)は数量加算
func (r *CartItemGormRepository) UpsertAdd(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := lineScope(tx.Clauses(clause.Locking{Strength: "UPDATE"}), cartID, productID, variantID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", item.Quantity+addQty)

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 無い場合は新規作成
		now := time.Now()
		newItem := model.CartItem{
			CartID:    cartID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  addQty,
			CreatedAt: now,
			UpdatedAt: now,
		}

		return tx.Create(&newItem).Error
	})
}

// 数量を上書き（加算ではない）。行が無ければErrNotFound。
func (r *CartItemGormRepository) SetQuantity(ctx context.Context, cartID int64, productID int64, variantID *int64, qty int64) error {
	res := lineScope(r.db.WithContext(ctx).Model(&model.CartItem{}), cartID, productID, variantID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 行が無くても成功扱い。
func (r *CartItemGormRepository) DeleteLine(ctx context.Context, cartID int64, productID int64, variantID *int64) error {
	return lineScope(r.db.WithContext(ctx), cartID, productID, variantID).
		Delete(&model.CartItem{}).Error
}
