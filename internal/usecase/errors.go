package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// envelopeに載せるエラーコード
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeProductNotFound  = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound    = "ORDER_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodeEmptyCart        = "EMPTY_CART"
	CodePriceUnavailable = "PRICE_UNAVAILABLE"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// usecaseからhandlerへ渡すHTTPエラー。
// Messageはそのままenvelopeに出るので内部情報を入れない。
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{Status: status, Code: code, Message: message}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// よく使うもののショートハンド
func errValidation(msg string) error {
	return NewHTTPError(http.StatusBadRequest, CodeValidation, msg)
}

func errInternal() error {
	return NewHTTPError(http.StatusInternalServerError, CodeInternal, "internal error")
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}
