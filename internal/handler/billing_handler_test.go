package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/payment"
)

type billingServiceMock struct {
	scope        service.Scope
	payer        service.Payer
	checkout     service.CheckoutRequest
	notification payment.Notification
}

func (m *billingServiceMock) Checkout(_ context.Context, scope service.Scope, payer service.Payer, req service.CheckoutRequest) (*models.Payment, error) {
	m.scope, m.payer, m.checkout = scope, payer, req
	if req.SubscriptionID == "sub-paid" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subscription is already active")
	}
	return &models.Payment{Base: models.Base{ID: "pay-1"}}, nil
}

func (m *billingServiceMock) HandleNotification(_ context.Context, n payment.Notification) (*models.Payment, error) {
	m.notification = n
	if n.SignatureKey != "valid" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid notification signature")
	}
	return &models.Payment{Base: models.Base{ID: "pay-1"}}, nil
}

func TestBillingHandlerCheckout(t *testing.T) {
	svc := &billingServiceMock{}
	handler := &BillingHandler{service: svc}
	c, w := newScheduleContext(http.MethodPost, "/payments/checkout", strings.NewReader(`{"subscription_id":"sub-1"}`), adminClaims)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Checkout(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "sub-1", svc.checkout.SubscriptionID)
	assert.Equal(t, service.Payer{Name: "Ada Admin", Email: "admin@north.test"}, svc.payer)
	assert.Equal(t, service.Scope{SchoolID: "school-1"}, svc.scope)
}

func TestBillingHandlerCheckoutConflict(t *testing.T) {
	handler := &BillingHandler{service: &billingServiceMock{}}
	c, w := newScheduleContext(http.MethodPost, "/payments/checkout", strings.NewReader(`{"subscription_id":"sub-paid"}`), adminClaims)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Checkout(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBillingHandlerNotification(t *testing.T) {
	svc := &billingServiceMock{}
	handler := &BillingHandler{service: svc}
	body := `{"order_id":"pay-1","status_code":"200","gross_amount":"499000.00","signature_key":"valid","transaction_status":"settlement"}`

	c, w := newScheduleContext(http.MethodPost, "/payments/notifications", strings.NewReader(body), nil)
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Notification(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "settlement", svc.notification.TransactionStatus)

	forged := strings.Replace(body, `"valid"`, `"forged"`, 1)
	c, w = newScheduleContext(http.MethodPost, "/payments/notifications", strings.NewReader(forged), nil)
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Notification(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
