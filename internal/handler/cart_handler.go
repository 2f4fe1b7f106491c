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

// /cartのHTTP。ゲストもログインユーザーも同じルートを使う。
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity  int64  `json:"quantity"`
	VariantID *int64 `json:"variant_id,omitempty"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.GuestSession())
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clearCart)
	g.PATCH("/items/:productID", h.patchItem)
	g.DELETE("/items/:productID", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	id, ok := identityFromContext(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	out, err := h.uc.GetCart(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	id, okID := identityFromContext(c)
	if !okID {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.uc.AddToCart(c.Request().Context(), id, usecase.AddCartInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	id, okID := identityFromContext(c)
	if !okID {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// quantity <= 0 は削除として扱われる
	out, err := h.uc.UpdateItem(c.Request().Context(), id, productID, req.VariantID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	id, okID := identityFromContext(c)
	if !okID {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	var variantID *int64
	if v := c.QueryParam("variant_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid variant_id")
		}
		variantID = &x
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), id, productID, variantID)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	id, okID := identityFromContext(c)
	if !okID {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized"))
	}

	if err := h.uc.ClearCart(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return respondOK(c, map[string]string{"message": "cart cleared"})
}
