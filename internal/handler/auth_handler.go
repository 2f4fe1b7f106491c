package handler

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// /auth配下。登録・ログイン時にゲストカートの併合が走る。
type AuthHandler struct {
	uc *usecase.AuthUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	// ヘッダのゲストトークンを拾えれば、登録と同時にカートを引き継ぐ
	req.GuestToken = c.Request().Header.Get(middleware.GuestTokenHeader)

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.LoginInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	req.GuestToken = c.Request().Header.Get(middleware.GuestTokenHeader)

	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}
