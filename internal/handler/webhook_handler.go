package handler

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 決済プロバイダからのwebhook受け口。
type WebhookHandler struct {
	uc *usecase.PaymentUsecase
}

func NewWebhookHandler(uc *usecase.PaymentUsecase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

type PaymentWebhookRequest struct {
	ProviderRef string `json:"provider_ref" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payment", h.paymentEvent)
}

func (h *WebhookHandler) paymentEvent(c echo.Context) error {
	var req PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.uc.HandleProviderEvent(c.Request().Context(), usecase.WebhookInput{
		ProviderRef: req.ProviderRef,
		Status:      req.Status,
	}); err != nil {
		return writeError(c, err)
	}
	return respondOK(c, map[string]string{"message": "accepted"})
}
