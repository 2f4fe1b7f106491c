package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	GuestTokenHeader = "X-Guest-Token"
	CtxGuestTokenKey = "guest_token" // string
)

// GuestSession はゲストのカートキーになるトークンをヘッダから拾う。
// 無ければ発行してレスポンスヘッダで返す（クライアントは以後それを送る）。
func GuestSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(GuestTokenHeader)
			if token == "" {
				token = uuid.NewString()
			}

			c.Set(CtxGuestTokenKey, token)
			c.Response().Header().Set(GuestTokenHeader, token)

			return next(c)
		}
	}
}
