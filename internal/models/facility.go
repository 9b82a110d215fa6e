package models

// Room is a bookable teaching or exam space.
type Room struct {
	Base
	SchoolID string `db:"school_id" json:"school_id" validate:"required"`
	Name     string `db:"name" json:"name" validate:"required,max=100"`
	RoomType string `db:"room_type" json:"room_type" validate:"omitempty,oneof=CLASSROOM LAB HALL EXAM"`
	Capacity int    `db:"capacity" json:"capacity" validate:"min=0"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (r *Room) Tenant() string { return r.SchoolID }

// ApplyDefaults implements Defaulter.
func (r *Room) ApplyDefaults() {
	r.RoomType = "CLASSROOM"
	r.IsActive = true
}

// Lecturer is a teaching staff member; UserID links an optional login.
type Lecturer struct {
	Base
	SchoolID   string  `db:"school_id" json:"school_id" validate:"required"`
	UserID     *string `db:"user_id" json:"user_id,omitempty"`
	FullName   string  `db:"full_name" json:"full_name" validate:"required,max=200"`
	Email      string  `db:"email" json:"email" validate:"required,email"`
	Department string  `db:"department" json:"department" validate:"omitempty,max=100"`
	IsActive   bool    `db:"is_active" json:"is_active"`
}

// Tenant implements Record.
func (l *Lecturer) Tenant() string { return l.SchoolID }

// ApplyDefaults implements Defaulter.
func (l *Lecturer) ApplyDefaults() {
	l.IsActive = true
}
