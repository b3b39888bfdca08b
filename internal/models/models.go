// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
//
// The data model represents a sports club where:
//   - Users sign in through the identity service and may be promoted to members
//   - Courts are the bookable facilities managed by admins
//   - Bookings reference a user by email (not by foreign key) and move through a small state machine
//   - Announcements are free-form notices shown to everyone
//
// Every table is independent. There are no foreign keys between them, mirroring
// the "collection of documents" shape the club app was built around.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// --- Enums ---

// Role represents a user's permission level across the club.
type Role string

const (
	RoleUser   Role = "user"   // Default for anyone who has signed in
	RoleMember Role = "member" // Promoted when an admin approves one of their bookings
	RoleAdmin  Role = "admin"  // Manages courts, bookings, members and announcements
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMember, RoleAdmin:
		return true
	}
	return false
}

// BookingStatus tracks the lifecycle of a booking.
// pending -> approved (admin), pending -> cancelled (owner or admin).
// A rejected booking is deleted rather than moved to a status.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// --- Models ---

// User is created on first sign-in. Email is the business key used by every
// other table that needs to refer to a person.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"_id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Name           string     `gorm:"not null;default:''" json:"name"`
	Photo          string     `gorm:"not null;default:''" json:"photo,omitempty"`
	Role           Role       `gorm:"not null;default:''" json:"role,omitempty"` // empty means plain user
	MembershipDate *time.Time `json:"membership_date,omitempty"`                 // stamped when promoted to member
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EffectiveRole returns the stored role, treating an empty value as RoleUser.
func (u *User) EffectiveRole() Role {
	if u == nil || u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// Court is a bookable facility. Name, type, image, price and slots are
// first-class columns. Anything else an admin sends is kept in Attributes so
// the catalog can grow new fields without a schema change.
type Court struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"_id"`
	Name       string                      `gorm:"not null" json:"name"`
	Type       string                      `gorm:"not null;default:''" json:"type,omitempty"`
	Image      string                      `gorm:"not null;default:''" json:"image,omitempty"`
	Price      decimal.Decimal             `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Slots      datatypes.JSONSlice[string] `json:"slots"`
	Attributes datatypes.JSONMap           `json:"attributes,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// Booking is a request by a user to use a court. UserEmail is a plain string
// reference to users.email; nothing enforces that the user exists.
type Booking struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"_id"`
	UserEmail string                      `gorm:"index;not null" json:"userEmail"`
	UserName  string                      `gorm:"not null;default:''" json:"userName,omitempty"`
	CourtID   string                      `gorm:"index;not null" json:"courtId"`
	CourtName string                      `gorm:"not null;default:''" json:"courtName,omitempty"`
	CourtType string                      `gorm:"not null;default:''" json:"courtType,omitempty"`
	Date      string                      `gorm:"not null;default:''" json:"date"` // YYYY-MM-DD
	Slots     datatypes.JSONSlice[string] `json:"slots"`
	Price     decimal.Decimal             `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Status    BookingStatus               `gorm:"index;not null" json:"status"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// Announcement is a free-form notice.
type Announcement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Title       string    `gorm:"not null;default:''" json:"title"`
	Content     string    `gorm:"not null;default:''" json:"content"`
	AuthorEmail string    `gorm:"not null;default:''" json:"authorEmail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All lists every model, in the order AutoMigrate should create them.
func All() []any {
	return []any{&User{}, &Court{}, &Booking{}, &Announcement{}}
}
