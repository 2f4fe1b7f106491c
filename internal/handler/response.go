package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

// 全エンドポイント共通のレスポンスenvelope
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondStatus(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func respondList(c echo.Context, data any, page int, limit int, total int64) error {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages},
	})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, Envelope{
			Success: false,
			Error:   &APIError{Code: he.Code, Message: he.Message},
		})
	}

	// 内部詳細は出さない
	return c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Error:   &APIError{Code: usecase.CodeInternal, Message: "internal error"},
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &APIError{Code: usecase.CodeValidation, Message: msg},
	})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	id, ok := v.(int64)
	return id, ok && id > 0
}

func getGuestTokenFromContext(c echo.Context) string {
	v := c.Get(middleware.CtxGuestTokenKey)
	token, _ := v.(string)
	return token
}

// ログイン済みならユーザー、そうでなければゲストのidentityを返す。
func identityFromContext(c echo.Context) (model.CartIdentity, bool) {
	if userID, ok := getUserIDFromContext(c); ok {
		return model.UserIdentity(userID), true
	}
	if token := getGuestTokenFromContext(c); token != "" {
		return model.GuestIdentity(token), true
	}
	return model.CartIdentity{}, false
}
