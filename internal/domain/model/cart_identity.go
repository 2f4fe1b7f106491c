package model

import "strconv"

// CartIdentity はカートの持ち主。ゲストトークンかユーザーIDの
// どちらか片方だけを持つ。
type CartIdentity struct {
	GuestToken string
	UserID     int64
}

func GuestIdentity(token string) CartIdentity {
	return CartIdentity{GuestToken: token}
}

func UserIdentity(userID int64) CartIdentity {
	return CartIdentity{UserID: userID}
}

func (id CartIdentity) IsGuest() bool {
	return id.GuestToken != ""
}

// Valid はどちらか片方だけが入っているかを検査する。
func (id CartIdentity) Valid() bool {
	if id.GuestToken != "" {
		return id.UserID == 0
	}
	return id.UserID > 0
}

// Key はストレージのキーになる文字列。ゲストとユーザーで衝突しない。
func (id CartIdentity) Key() string {
	if id.IsGuest() {
		return "guest:" + id.GuestToken
	}
	return "user:" + strconv.FormatInt(id.UserID, 10)
}
