package models

// School is the tenant root.
type School struct {
	Base
	Name     string `db:"name" json:"name" validate:"required,max=200"`
	Email    string `db:"email" json:"email" validate:"omitempty,email"`
	Phone    string `db:"phone" json:"phone" validate:"omitempty,max=50"`
	Address  string `db:"address" json:"address" validate:"omitempty,max=500"`
	Plan     string `db:"plan" json:"plan" validate:"omitempty,oneof=FREE BASIC PRO ENTERPRISE"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (s *School) Tenant() string { return s.ID }

// ApplyDefaults implements Defaulter.
func (s *School) ApplyDefaults() {
	s.Plan = "FREE"
	s.IsActive = true
}
