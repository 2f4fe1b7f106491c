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

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// owner_keyのACTIVEカートを取得し、無ければ作成。
// ACTIVEはownerあたり最大1行（部分一意インデックス）。
// 見つけた行はFOR UPDATEでロックして、同一identityの読み書きを直列化する。
// 作成はON CONFLICT DO NOTHINGで行い、同時作成に負けた側は勝った行を引く。
func (r *CartGormRepository) GetOrCreateActiveByOwner(ctx context.Context, ownerKey string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockActive := func() error {
			return tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("owner_key = ? AND status = ?", ownerKey, model.CartStatusActive).
				First(&cart).Error
		}

		findErr := lockActive()
		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る。一意制約違反はエラーにせず（トランザクションを
		// 壊さないため）、RowsAffected=0を同時作成の合図にする。
		now := time.Now()
		newCart := model.Cart{
			OwnerKey:  ownerKey,
			Status:    model.CartStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "owner_key"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Eq{Column: "status", Value: string(model.CartStatusActive)}}},
			DoNothing:   true,
		}).Create(&newCart)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 同時に作られた。勝った行をロックして使う。
			return lockActive()
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindActiveByOwner(ctx context.Context, ownerKey string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("owner_key = ? AND status = ?", ownerKey, model.CartStatusActive).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除。カートが無くても明細が無くてもエラーにしない。
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
