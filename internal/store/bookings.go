package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/models"
)

// Bookings is the bookings collection.
type Bookings struct {
	db *gorm.DB
}

func NewBookings(db *gorm.DB) *Bookings {
	return &Bookings{db: db}
}

// ApproveResult reports what an approval touched. UserModified is 0 when the
// booking's email has no user row, or the user is an admin (admins are never
// demoted to member).
type ApproveResult struct {
	Booking          models.Booking
	BookingsModified int64
	UsersModified    int64
}

// Create inserts b with a fresh id. New bookings always start out pending,
// whatever the caller put in Status.
func (s *Bookings) Create(ctx context.Context, b *models.Booking) error {
	b.ID = uuid.New()
	b.UserEmail = normalizeEmail(b.UserEmail)
	b.Status = models.BookingStatusPending
	return s.db.WithContext(ctx).Create(b).Error
}

// Get returns one booking or ErrNotFound.
func (s *Bookings) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// List returns bookings in the given status, newest first. A non-empty email
// restricts the result to that user's bookings.
func (s *Bookings) List(ctx context.Context, status models.BookingStatus, email string) ([]models.Booking, error) {
	tx := s.db.WithContext(ctx).Where("status = ?", status)
	if email != "" {
		tx = tx.Where("user_email = ?", normalizeEmail(email))
	}

	bookings := []models.Booking{}
	if err := tx.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel moves a pending booking to cancelled.
// It returns ErrNotFound or ErrNotPending when the transition does not apply.
func (s *Bookings) Cancel(ctx context.Context, id uuid.UUID) (int64, error) {
	// The status condition makes the check and the write one statement.
	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.BookingStatusPending).
		Update("status", models.BookingStatusCancelled)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, s.whyNotPending(ctx, id)
	}
	return res.RowsAffected, nil
}

// Approve marks a pending booking approved and promotes the booking's user to
// member, stamping their membership date. Both writes happen in a single
// transaction.
func (s *Bookings) Approve(ctx context.Context, id uuid.UUID, now time.Time) (ApproveResult, error) {
	var out ApproveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out.Booking, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if out.Booking.Status != models.BookingStatusPending {
			return ErrNotPending
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, models.BookingStatusPending).
			Update("status", models.BookingStatusApproved)
		if res.Error != nil {
			return res.Error
		}
		out.BookingsModified = res.RowsAffected
		out.Booking.Status = models.BookingStatusApproved

		// Admins keep their role. A booking whose email has no user row
		// updates nothing, and that is fine.
		res = tx.Model(&models.User{}).
			Where("email = ? AND role <> ?", out.Booking.UserEmail, models.RoleAdmin).
			Updates(map[string]any{
				"role":            models.RoleMember,
				"membership_date": now,
			})
		if res.Error != nil {
			return res.Error
		}
		out.UsersModified = res.RowsAffected
		return nil
	})
	if err != nil {
		return ApproveResult{}, err
	}
	return out, nil
}

// Reject deletes a pending booking.
func (s *Bookings) Reject(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.BookingStatusPending).
		Delete(&models.Booking{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, s.whyNotPending(ctx, id)
	}
	return res.RowsAffected, nil
}

// Delete removes a booking regardless of its status.
func (s *Bookings) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Booking{})
	return res.RowsAffected, res.Error
}

// Count returns the number of bookings, optionally restricted to one status.
func (s *Bookings) Count(ctx context.Context, status models.BookingStatus) (int64, error) {
	var n int64
	tx := s.db.WithContext(ctx).Model(&models.Booking{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// whyNotPending explains a conditional write that matched no rows.
func (s *Bookings) whyNotPending(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return ErrNotPending
}
