package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/campushub/campushub-api/pkg/config"
)

// Payment outcome statuses.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusFailed  = "FAILED"
)

// Gateway errors.
var (
	ErrDisabled         = errors.New("payments are disabled")
	ErrInvalidSignature = errors.New("invalid notification signature")
)

// CheckoutRequest describes a single-item order.
type CheckoutRequest struct {
	OrderID       string
	Amount        int64
	ItemName      string
	CustomerName  string
	CustomerEmail string
}

// CheckoutResult carries the hosted checkout handle.
type CheckoutResult struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Notification is the asynchronous status callback sent by the gateway.
type Notification struct {
	OrderID           string `json:"order_id" validate:"required"`
	StatusCode        string `json:"status_code" validate:"required"`
	GrossAmount       string `json:"gross_amount" validate:"required"`
	SignatureKey      string `json:"signature_key" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// Gateway creates checkouts and authenticates callbacks.
type Gateway interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	Verify(n Notification) error
}

type snapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Midtrans is a Snap backed gateway.
type Midtrans struct {
	client    snapCreator
	serverKey string
	finishURL string
}

// New returns a Midtrans gateway, or a disabled gateway when payments are off.
func New(cfg config.PaymentsConfig) Gateway {
	if !cfg.Enabled || cfg.ServerKey == "" {
		return disabled{}
	}
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(cfg.ServerKey, env)
	return &Midtrans{client: client, serverKey: cfg.ServerKey, finishURL: cfg.FinishURL}
}

// Checkout opens a Snap transaction for the order.
func (m *Midtrans) Checkout(_ context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("order id required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.OrderID,
			Name:  truncate(req.ItemName, 50),
			Price: req.Amount,
			Qty:   1,
		}},
	}
	if m.finishURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: m.finishURL}
	}

	resp, mErr := m.client.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("create snap transaction: %w", mErr)
	}
	return &CheckoutResult{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// Verify checks SHA512(order_id + status_code + gross_amount + server_key).
func (m *Midtrans) Verify(n Notification) error {
	if !strings.EqualFold(Signature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey), n.SignatureKey) {
		return ErrInvalidSignature
	}
	return nil
}

// Signature computes the notification signature for the given fields.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// MapStatus folds gateway transaction states into PENDING, PAID or FAILED.
func MapStatus(n Notification) string {
	switch strings.ToLower(n.TransactionStatus) {
	case "settlement":
		return StatusPaid
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "", "accept":
			return StatusPaid
		case "challenge":
			return StatusPending
		}
		return StatusFailed
	case "pending":
		return StatusPending
	default:
		return StatusFailed
	}
}

type disabled struct{}

func (disabled) Checkout(context.Context, CheckoutRequest) (*CheckoutResult, error) {
	return nil, ErrDisabled
}

func (disabled) Verify(Notification) error {
	return ErrDisabled
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
