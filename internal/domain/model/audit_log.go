package model

import "time"

// 管理者操作の種類。
type AuditAction string

const (
	AuditActionOrderStatusChange AuditAction = "ORDER_STATUS_CHANGE"
	AuditActionProductUpsert     AuditAction = "PRODUCT_UPSERT"
)

// 操作対象の種類。
type AuditResource string

const (
	AuditResourceOrder   AuditResource = "order"
	AuditResourceProduct AuditResource = "product"
)

// 管理者操作の記録。「誰が」「何を」「どの対象に」「どう変えたか」を残す。
// 変更前後はJSON文字列で保存する。
type AuditLog struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID int64         `gorm:"not null;index" json:"actor_user_id"`
	Action      AuditAction   `gorm:"type:varchar(50);not null;index" json:"action"`
	Resource    AuditResource `gorm:"type:varchar(50);not null;index" json:"resource"`
	ResourceID  int64         `gorm:"not null;index" json:"resource_id"`
	BeforeJSON  string        `gorm:"type:text" json:"before_json"`
	AfterJSON   string        `gorm:"type:text" json:"after_json"`
	CreatedAt   time.Time     `gorm:"not null;index;autoCreateTime" json:"created_at"`
}

func ParseAuditAction(s string) (AuditAction, bool) {
	switch AuditAction(s) {
	case AuditActionOrderStatusChange, AuditActionProductUpsert:
		return AuditAction(s), true
	}
	return "", false
}

func ParseAuditResource(s string) (AuditResource, bool) {
	switch AuditResource(s) {
	case AuditResourceOrder, AuditResourceProduct:
		return AuditResource(s), true
	}
	return "", false
}
