package cartstore

import (
	"context"
	"sync"

	"storefront/internal/domain/model"
)

// MemoryStore はインメモリのStore実装。
// ゲストカートの開発用途と、テストのバックエンドとして使う。
// identityごとのmutexで読み書きを直列化する。プロセスを落とすと消える。
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*memoryCart
}

type memoryCart struct {
	mu    sync.Mutex
	items []LineItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*memoryCart)}
}

// identityのカートを取得（無ければ作る）してロックを握ったまま返す。
func (s *MemoryStore) lock(id model.CartIdentity) *memoryCart {
	s.mu.Lock()
	c, ok := s.carts[id.Key()]
	if !ok {
		c = &memoryCart{}
		s.carts[id.Key()] = c
	}
	s.mu.Unlock()

	c.mu.Lock()
	return c
}

func (s *MemoryStore) AddItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error {
	if !id.Valid() {
		return ErrInvalidIdentity
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	c := s.lock(id)
	defer c.mu.Unlock()

	c.add(productID, variantID, qty)
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64) error {
	if !id.Valid() {
		return ErrInvalidIdentity
	}

	c := s.lock(id)
	defer c.mu.Unlock()

	c.remove(productID, variantID)
	return nil
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, id model.CartIdentity, productID int64, variantID *int64, qty int64) error {
	if !id.Valid() {
		return ErrInvalidIdentity
	}

	c := s.lock(id)
	defer c.mu.Unlock()

	// 0以下は削除と同じ
	if qty <= 0 {
		c.remove(productID, variantID)
		return nil
	}

	for i := range c.items {
		if sameLine(c.items[i], productID, variantID) {
			c.items[i].Quantity = qty
			return nil
		}
	}

	// 無ければ新規行として置く
	c.items = append(c.items, LineItem{ProductID: productID, VariantID: variantID, Quantity: qty})
	return nil
}

func (s *MemoryStore) GetItems(ctx context.Context, id model.CartIdentity) ([]LineItem, error) {
	if !id.Valid() {
		return nil, ErrInvalidIdentity
	}

	c := s.lock(id)
	defer c.mu.Unlock()

	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, id model.CartIdentity) error {
	if !id.Valid() {
		return ErrInvalidIdentity
	}

	c := s.lock(id)
	defer c.mu.Unlock()

	c.items = nil
	return nil
}

// インメモリにはカートの世代が無いので、空にするだけでよい。
func (s *MemoryStore) Checkout(ctx context.Context, id model.CartIdentity) error {
	return s.Clear(ctx, id)
}

// Merge はfromの明細をtoへ加算して、fromを空にする。
// デッドロック回避のためキーの昇順で両カートをロックする。
func (s *MemoryStore) Merge(ctx context.Context, from model.CartIdentity, to model.CartIdentity) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidIdentity
	}
	if from.Key() == to.Key() {
		return nil
	}

	first, second := from, to
	if second.Key() < first.Key() {
		first, second = second, first
	}

	fc := s.lock(first)
	defer fc.mu.Unlock()
	sc := s.lock(second)
	defer sc.mu.Unlock()

	src, dst := fc, sc
	if first.Key() != from.Key() {
		src, dst = sc, fc
	}

	for _, it := range src.items {
		dst.add(it.ProductID, it.VariantID, it.Quantity)
	}
	src.items = nil
	return nil
}

func (c *memoryCart) add(productID int64, variantID *int64, qty int64) {
	for i := range c.items {
		if sameLine(c.items[i], productID, variantID) {
			c.items[i].Quantity += qty
			return
		}
	}
	c.items = append(c.items, LineItem{ProductID: productID, VariantID: variantID, Quantity: qty})
}

func (c *memoryCart) remove(productID int64, variantID *int64) {
	for i := range c.items {
		if sameLine(c.items[i], productID, variantID) {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func sameLine(it LineItem, productID int64, variantID *int64) bool {
	if it.ProductID != productID {
		return false
	}
	if it.VariantID == nil && variantID == nil {
		return true
	}
	if it.VariantID == nil || variantID == nil {
		return false
	}
	return *it.VariantID == *variantID
}
