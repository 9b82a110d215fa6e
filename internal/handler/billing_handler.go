package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/payment"
	"github.com/campushub/campushub-api/pkg/response"
)

type billingService interface {
	Checkout(ctx context.Context, scope service.Scope, payer service.Payer, req service.CheckoutRequest) (*models.Payment, error)
	HandleNotification(ctx context.Context, n payment.Notification) (*models.Payment, error)
}

// BillingHandler exposes subscription checkout and the gateway callback.
type BillingHandler struct {
	service billingService
}

// NewBillingHandler constructs the handler.
func NewBillingHandler(svc *service.BillingService) *BillingHandler {
	return &BillingHandler{service: svc}
}

// Checkout godoc
// @Summary Start a subscription payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body service.CheckoutRequest true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /payments/checkout [post]
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid checkout payload"))
		return
	}
	payer := callerAddress(c)
	pay, err := h.service.Checkout(c.Request.Context(), scopeFromContext(c), service.Payer{Name: payer.Name, Email: payer.Email}, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pay)
}

// Notification godoc
// @Summary Payment gateway callback
// @Description Authenticated by the notification signature rather than a bearer token.
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body payment.Notification true "Gateway notification"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /payments/notifications [post]
func (h *BillingHandler) Notification(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid notification payload"))
		return
	}
	pay, err := h.service.HandleNotification(c.Request.Context(), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pay)
}
