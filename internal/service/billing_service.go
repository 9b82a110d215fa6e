package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/mailer"
	"github.com/campushub/campushub-api/pkg/payment"
)

type subscriptionStore interface {
	Get(ctx context.Context, scope Scope, id string) (*models.Subscription, error)
	Update(ctx context.Context, scope Scope, id string, item *models.Subscription) (*models.Subscription, error)
}

type paymentStore interface {
	Create(ctx context.Context, scope Scope, item *models.Payment) (*models.Payment, error)
	Get(ctx context.Context, scope Scope, id string) (*models.Payment, error)
	Update(ctx context.Context, scope Scope, id string, item *models.Payment) (*models.Payment, error)
}

type schoolReader interface {
	Get(ctx context.Context, scope Scope, id string) (*models.School, error)
}

type receiptNotifier interface {
	PaymentReceipt(to mailer.Address, payment models.Payment) error
}

// CheckoutRequest starts a payment for a subscription.
type CheckoutRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

// Payer identifies who is paying; used for the gateway customer details and receipt.
type Payer struct {
	Name  string
	Email string
}

// BillingService turns subscriptions into gateway payments and applies gateway callbacks.
type BillingService struct {
	subscriptions subscriptionStore
	payments      paymentStore
	schools       schoolReader
	gateway       payment.Gateway
	notifier      receiptNotifier
	currency      string
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewBillingService constructs a BillingService.
func NewBillingService(subscriptions subscriptionStore, payments paymentStore, schools schoolReader, gateway payment.Gateway, notifier receiptNotifier, currency string, validate *validator.Validate, logger *zap.Logger) *BillingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "IDR"
	}
	return &BillingService{
		subscriptions: subscriptions,
		payments:      payments,
		schools:       schools,
		gateway:       gateway,
		notifier:      notifier,
		currency:      currency,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// Checkout records a pending payment and opens a gateway transaction for it.
func (s *BillingService) Checkout(ctx context.Context, scope Scope, payer Payer, req CheckoutRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid checkout payload")
	}
	sub, err := s.subscriptions.Get(ctx, scope, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subscription is already active")
	}
	if sub.Price <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subscription has no price to charge")
	}

	pay, err := s.payments.Create(ctx, scope, &models.Payment{
		SchoolID:       sub.SchoolID,
		SubscriptionID: sub.ID,
		Amount:         sub.Price,
		Currency:       s.currency,
		Status:         models.PaymentPending,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Checkout(ctx, payment.CheckoutRequest{
		OrderID:       pay.ID,
		Amount:        int64(math.Round(sub.Price)),
		ItemName:      sub.Plan + " plan",
		CustomerName:  payer.Name,
		CustomerEmail: payer.Email,
	})
	if err != nil {
		pay.Status = models.PaymentFailed
		if _, updateErr := s.payments.Update(ctx, Scope{}, pay.ID, pay); updateErr != nil {
			s.logger.Warn("failed to mark payment failed", zap.String("payment_id", pay.ID), zap.Error(updateErr))
		}
		if errors.Is(err, payment.ErrDisabled) {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "payments are disabled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "payment gateway unavailable")
	}

	pay.GatewayRef = result.Token
	pay.RedirectURL = result.RedirectURL
	updated, err := s.payments.Update(ctx, Scope{}, pay.ID, pay)
	if err != nil {
		return nil, err
	}
	s.logger.Info("checkout created", zap.String("payment_id", pay.ID), zap.String("subscription_id", sub.ID))
	return updated, nil
}

// HandleNotification verifies a gateway callback and applies the payment status.
// Settled payments activate their subscription. Repeated callbacks for a paid payment are ignored.
func (s *BillingService) HandleNotification(ctx context.Context, n payment.Notification) (*models.Payment, error) {
	if err := s.validator.Struct(n); err != nil {
		return nil, appErrors.Invalid(err, "invalid notification payload")
	}
	if err := s.gateway.Verify(n); err != nil {
		if errors.Is(err, payment.ErrDisabled) {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "payments are disabled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid notification signature")
	}

	pay, err := s.payments.Get(ctx, Scope{}, n.OrderID)
	if err != nil {
		return nil, err
	}
	if pay.Status == models.PaymentPaid {
		return pay, nil
	}

	pay.Status = payment.MapStatus(n)
	if n.TransactionID != "" {
		pay.GatewayRef = n.TransactionID
	}
	now := s.now().UTC()
	if pay.Status == models.PaymentPaid {
		pay.PaidAt = &now
	}
	updated, err := s.payments.Update(ctx, Scope{}, pay.ID, pay)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment notification applied",
		zap.String("payment_id", pay.ID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("status", pay.Status),
	)

	if updated.Status != models.PaymentPaid {
		return updated, nil
	}
	if err := s.activate(ctx, updated.SubscriptionID, now); err != nil {
		return nil, err
	}
	s.sendReceipt(ctx, *updated)
	return updated, nil
}

func (s *BillingService) sendReceipt(ctx context.Context, paid models.Payment) {
	if s.notifier == nil || s.schools == nil {
		return
	}
	school, err := s.schools.Get(ctx, Scope{}, paid.SchoolID)
	if err != nil {
		s.logger.Warn("payment receipt skipped", zap.String("payment_id", paid.ID), zap.Error(err))
		return
	}
	if err := s.notifier.PaymentReceipt(mailer.Address{Name: school.Name, Email: school.Email}, paid); err != nil {
		s.logger.Warn("payment receipt not queued", zap.Error(err))
	}
}

func (s *BillingService) activate(ctx context.Context, subscriptionID string, now time.Time) error {
	sub, err := s.subscriptions.Get(ctx, Scope{}, subscriptionID)
	if err != nil {
		return err
	}
	ends := now.AddDate(0, 1, 0)
	if sub.StartsAt != nil && sub.EndsAt != nil && sub.EndsAt.After(*sub.StartsAt) {
		ends = now.Add(sub.EndsAt.Sub(*sub.StartsAt))
	}
	sub.Status = models.SubscriptionActive
	sub.StartsAt = &now
	sub.EndsAt = &ends
	_, err = s.subscriptions.Update(ctx, Scope{}, sub.ID, sub)
	return err
}
