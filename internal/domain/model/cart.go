package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusMerged     CartStatus = "MERGED"
)

// 1 identityにつきACTIVEは1つ。owner_keyは CartIdentity.Key() の値。
// この不変条件は部分一意インデックスでスキーマに固定する。
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerKey  string     `gorm:"type:varchar(255);not null;uniqueIndex:ux_carts_owner_active,where:status = 'ACTIVE'" json:"owner_key"`
	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
