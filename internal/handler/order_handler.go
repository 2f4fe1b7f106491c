package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// checkoutと自分の注文の照会。カートと同じくゲストも通す。
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type CheckoutRequest struct {
	PaymentMethodRef string `json:"payment_method_ref" validate:"required"`
	// ゲスト注文だけ必須。ログイン済みなら無視される。
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/checkout", h.checkout, middleware.GuestSession(), middleware.OptionalAuthJWT(cfg))

	g := e.Group("/orders")
	g.Use(middleware.GuestSession())
	g.Use(middleware.OptionalAuthJWT(cfg))
	g.GET("", h.listMine)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	id, ok := identityFromContext(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), id, usecase.PlaceOrderInput{
		PaymentMethodRef: req.PaymentMethodRef,
		IdempotencyKey:   c.Request().Header.Get("Idempotency-Key"),
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respondStatus(c, http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	id, ok := identityFromContext(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	page, limit := 1, 20
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}

	outs, total, err := h.uc.ListMyOrders(c.Request().Context(), id, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return respondList(c, outs, page, limit, total)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, ok := identityFromContext(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), id, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}
