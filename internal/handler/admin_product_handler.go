package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 管理者向けの商品API。取り込みはSKUキーのupsert。
type AdminProductHandler struct {
	uc *usecase.AdminProductUsecase
}

func NewAdminProductHandler(uc *usecase.AdminProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type UpsertVariantRequest struct {
	SKU      string  `json:"sku" validate:"required,max=64"`
	Name     string  `json:"name" validate:"required,max=255"`
	Price    *string `json:"price,omitempty"`
	IsActive bool    `json:"is_active"`
}

type UpsertProductRequest struct {
	SKU         string                 `json:"sku" validate:"required,max=64"`
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description"`
	Price       string                 `json:"price" validate:"required"`
	IsActive    bool                   `json:"is_active"`
	Variants    []UpsertVariantRequest `json:"variants,omitempty"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/products")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
	g.POST("", h.upsert)
}

func (h *AdminProductHandler) list(c echo.Context) error {
	in := usecase.AdminProductListInput{Page: 1, Limit: 20, Q: c.QueryParam("q")}

	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		in.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		in.Limit = n
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return respondList(c, out.Items, in.Page, in.Limit, out.Total)
}

func (h *AdminProductHandler) upsert(c echo.Context) error {
	var req UpsertProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return badRequest(c, "invalid price")
	}

	in := usecase.UpsertProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		IsActive:    req.IsActive,
	}
	for _, v := range req.Variants {
		vi := usecase.UpsertVariantInput{SKU: v.SKU, Name: v.Name, IsActive: v.IsActive}
		if v.Price != nil {
			d, err := decimal.NewFromString(*v.Price)
			if err != nil {
				return badRequest(c, "invalid variant price")
			}
			vi.Price = &d
		}
		in.Variants = append(in.Variants, vi)
	}

	actorID, _ := getUserIDFromContext(c)

	out, err := h.uc.Upsert(c.Request().Context(), actorID, in)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}
