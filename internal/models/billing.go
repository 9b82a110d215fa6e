package models

import "time"

// Subscription statuses.
const (
	SubscriptionPending   = "PENDING"
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// Payment statuses.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Subscription is a school's plan purchase.
type Subscription struct {
	Base
	SchoolID string     `db:"school_id" json:"school_id" validate:"required"`
	Plan     string     `db:"plan" json:"plan" validate:"required,oneof=FREE BASIC PRO ENTERPRISE"`
	Price    float64    `db:"price" json:"price" validate:"min=0"`
	Status   string     `db:"status" json:"status" validate:"omitempty,oneof=PENDING ACTIVE EXPIRED CANCELLED"`
	StartsAt *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt   *time.Time `db:"ends_at" json:"ends_at,omitempty"`
}

// Tenant implements Record.
func (s *Subscription) Tenant() string { return s.SchoolID }

// ApplyDefaults implements Defaulter.
func (s *Subscription) ApplyDefaults() {
	s.Status = SubscriptionPending
}

// Payment settles a subscription.
type Payment struct {
	Base
	SchoolID       string     `db:"school_id" json:"school_id" validate:"required"`
	SubscriptionID string     `db:"subscription_id" json:"subscription_id" validate:"required"`
	Amount         float64    `db:"amount" json:"amount" validate:"gt=0"`
	Currency       string     `db:"currency" json:"currency" validate:"omitempty,len=3"`
	Status         string     `db:"status" json:"status" validate:"omitempty,oneof=PENDING PAID FAILED"`
	GatewayRef     string     `db:"gateway_ref" json:"gateway_ref"`
	RedirectURL    string     `db:"redirect_url" json:"redirect_url"`
	PaidAt         *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// Tenant implements Record.
func (p *Payment) Tenant() string { return p.SchoolID }

// ApplyDefaults implements Defaulter.
func (p *Payment) ApplyDefaults() {
	p.Currency = "IDR"
	p.Status = PaymentPending
}
