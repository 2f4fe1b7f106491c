package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

// 管理者操作ログの参照API。AuthJWT+AdminRoleGuardが前提。
type AdminAuditLogHandler struct {
	uc *usecase.AdminAuditLogUsecase
}

func NewAdminAuditLogHandler(uc *usecase.AdminAuditLogUsecase) *AdminAuditLogHandler {
	return &AdminAuditLogHandler{uc: uc}
}

func (h *AdminAuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/audit-logs")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
}

func (h *AdminAuditLogHandler) list(c echo.Context) error {
	in := usecase.AdminAuditLogListInput{
		Page:     1,
		Limit:    50,
		Action:   c.QueryParam("action"),
		Resource: c.QueryParam("resource"),
	}

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
	if v := c.QueryParam("actor_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid actor_id")
		}
		in.ActorUserID = &n
	}
	if v := c.QueryParam("resource_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		in.ResourceID = &n
	}

	logs, total, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return respondList(c, logs, in.Page, in.Limit, total)
}
