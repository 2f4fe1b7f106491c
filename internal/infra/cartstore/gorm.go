package cartstore

import (
	"context"
	"errors"

	"storefront/internal/cartstore"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// GormStore はリレーショナルDBをバックエンドにしたcartstore.Store。
// 同一identityの読み書きはカート行のFOR UPDATEロックで直列化される。
type GormStore struct {
	tx repo.TransactionManager
}

func NewGormStore(tx repo.TransactionManager) *GormStore {
	return &GormStore{tx: tx}
}

var _ cartstore.Store = (*GormStore)(nil)

func (s *GormStore) AddItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error {
	if !id.Valid() {
		return cartstore.ErrInvalidIdentity
	}
	if qty <= 0 {
		return cartstore.ErrInvalidQuantity
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByOwner(ctx, id.Key())
		if err != nil {
			return err
		}
		return r.CartItems().UpsertAdd(ctx, cart.ID, productID, variantID, qty)
	})
}

func (s *GormStore) RemoveItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64) error {
	if !id.Valid() {
		return cartstore.ErrInvalidIdentity
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByOwner(ctx, id.Key())
		if errors.Is(err, repo.ErrNotFound) {
			// カートが無い＝消すものが無いので成功扱い
			return nil
		}
		if err != nil {
			return err
		}
		return r.CartItems().DeleteLine(ctx, cart.ID, productID, variantID)
	})
}

func (s *GormStore) UpdateQuantity(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error {
	if !id.Valid() {
		return cartstore.ErrInvalidIdentity
	}

	// 0以下は削除と同じ
	if qty <= 0 {
		return s.RemoveItem(ctx, id, productID, variantID)
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByOwner(ctx, id.Key())
		if err != nil {
			return err
		}

		err = r.CartItems().SetQuantity(ctx, cart.ID, productID, variantID, qty)
		if errors.Is(err, repo.ErrNotFound) {
			// 行が無ければ新規行として置く
			return r.CartItems().UpsertAdd(ctx, cart.ID, productID, variantID, qty)
		}
		return err
	})
}

func (s *GormStore) GetItems(ctx context.Context, id model.CartIdentity) ([]cartstore.LineItem, error) {
	if !id.Valid() {
		return nil, cartstore.ErrInvalidIdentity
	}

	var out []cartstore.LineItem

	err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByOwner(ctx, id.Key())
		if errors.Is(err, repo.ErrNotFound) {
			// 未知のidentityは空
			out = []cartstore.LineItem{}
			return nil
		}
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}

		out = make([]cartstore.LineItem, 0, len(items))
		for _, it := range items {
			out = append(out, cartstore.LineItem{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
			})
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Clear(ctx context.Context, id model.CartIdentity) error {
	if !id.Valid() {
		return cartstore.ErrInvalidIdentity
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByOwner(ctx, id.Key())
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return r.Carts().Clear(ctx, cart.ID)
	})
}

// Checkout は注文確定後のカートをCHECKED_OUTへ退役させる。
// ACTIVEの一意枠が空くので、次の操作は新しいカートを作る。
func (s *GormStore) Checkout(ctx context.Context, id model.CartIdentity) error {
	if !id.Valid() {
		return cartstore.ErrInvalidIdentity
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByOwner(ctx, id.Key())
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}
		return r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut)
	})
}

// Merge はゲストカートをログインユーザーのカートへ併合する。
// 1トランザクションで行い、ゲストカート行のロックを併合が終わるまで持つ。
// ゲストが空なら何もしない（2回流しても結果は同じ）。
func (s *GormStore) Merge(ctx context.Context, from model.CartIdentity, to model.CartIdentity) error {
	if !from.Valid() || !to.Valid() {
		return cartstore.ErrInvalidIdentity
	}
	if from.Key() == to.Key() {
		return nil
	}

	return s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// GetOrCreateがFOR UPDATEでロックを取る
		guestCart, err := r.Carts().GetOrCreateActiveByOwner(ctx, from.Key())
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, guestCart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		userCart, err := r.Carts().GetOrCreateActiveByOwner(ctx, to.Key())
		if err != nil {
			return err
		}

		// AddItemの意味（同一行は数量加算）で移す
		for _, it := range items {
			if err := r.CartItems().UpsertAdd(ctx, userCart.ID, it.ProductID, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}

		if err := r.Carts().Clear(ctx, guestCart.ID); err != nil {
			return err
		}
		return r.Carts().UpdateStatus(ctx, guestCart.ID, model.CartStatusMerged)
	})
}
