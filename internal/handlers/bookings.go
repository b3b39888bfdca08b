package handlers

// bookings.go handles /bookings.
//
// Booking lifecycle:
//   - "pending"   (created by any signed-in user)
//   - "approved"  (admin approves; the booking's user is promoted to member)
//   - "cancelled" (owner or admin cancels)
//   - rejected bookings are deleted outright, there is no "rejected" status
//
// Only pending bookings can move. Every transition is counted in the metrics
// and published as an event (see Notifier).

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trentd187/sports-club/internal/apperr"
	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/middleware"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

// CreateBookingRequest is the JSON body expected on POST /bookings.
// There is no status field: new bookings are always pending. The booking's
// email is the caller's verified email, never a value from the body.
type CreateBookingRequest struct {
	CourtID  string          `json:"courtId" validate:"required,uuid"`
	Date     string          `json:"date" validate:"required,datetime=2006-01-02"`
	Slots    []string        `json:"slots" validate:"required,min=1,dive,required"`
	Price    decimal.Decimal `json:"price"`
	UserName string          `json:"userName" validate:"max=200"`
}

// CreateBooking handles POST /bookings.
// Court name and type are copied from the court so listings stay readable if
// the court is renamed later. Without a price the court's price per slot is used.
func CreateBooking(bookings *store.Bookings, courts *store.Courts, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			return apperr.Unauthenticated("Unauthorized access")
		}

		var req CreateBookingRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.Price.IsNegative() {
			return apperr.BadRequest("price must not be negative")
		}

		court, err := courts.Get(c.UserContext(), uuid.MustParse(req.CourtID))
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Court not found")
		}
		if err != nil {
			return apperr.Internal(err, "Failed to fetch court")
		}

		price := req.Price
		if price.IsZero() {
			price = court.Price.Mul(decimal.NewFromInt(int64(len(req.Slots))))
		}
		userName := strings.TrimSpace(req.UserName)
		if userName == "" {
			userName = id.Name
		}

		booking := &models.Booking{
			UserEmail: id.Email,
			UserName:  userName,
			CourtID:   court.ID.String(),
			CourtName: court.Name,
			CourtType: court.Type,
			Date:      req.Date,
			Slots:     req.Slots,
			Price:     price,
		}
		if err := bookings.Create(c.UserContext(), booking); err != nil {
			return apperr.Internal(err, "Failed to create booking")
		}

		n.booking(c, "created", events.BookingCreated, booking.UserEmail, booking)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"insertedId": booking.ID, "booking": booking})
	}
}

// ListPendingBookings handles GET /bookings/pending. Admin only.
func ListPendingBookings(bookings *store.Bookings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := bookings.List(c.UserContext(), models.BookingStatusPending, "")
		if err != nil {
			return apperr.Internal(err, "Failed to fetch pending bookings")
		}
		return c.JSON(list)
	}
}

// ListOwnBookings handles GET /bookings/pending/:email and
// GET /bookings/approved/:email. Callers may only list their own bookings.
func ListOwnBookings(bookings *store.Bookings, status models.BookingStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			return apperr.Unauthenticated("Unauthorized access")
		}
		email := emailParam(c)
		if email == "" {
			return apperr.BadRequest("Email is required")
		}
		if !strings.EqualFold(email, id.Email) {
			return apperr.Forbidden("Forbidden access")
		}

		list, err := bookings.List(c.UserContext(), status, email)
		if err != nil {
			return apperr.Internal(err, "Failed to fetch bookings")
		}
		return c.JSON(list)
	}
}

// CancelBooking handles PATCH /bookings/cancel/:id. Owner or admin.
func CancelBooking(bookings *store.Bookings, users middleware.UserLookup, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, err := ownedBooking(c, bookings, users)
		if err != nil {
			return err
		}

		modified, err := bookings.Cancel(c.UserContext(), booking.ID)
		if err != nil {
			return bookingWriteError(err, "Failed to cancel booking")
		}

		booking.Status = models.BookingStatusCancelled
		n.booking(c, "cancelled", events.BookingCancelled, booking.UserEmail, booking)
		return c.JSON(fiber.Map{"modifiedCount": modified})
	}
}

// ApproveBooking handles PATCH /bookings/approve/:id. Admin only.
// Approval and the user's promotion to member are written together; the
// response reports each part separately.
func ApproveBooking(bookings *store.Bookings, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}

		res, err := bookings.Approve(c.UserContext(), id, time.Now().UTC())
		if err != nil {
			return bookingWriteError(err, "Failed to approve booking")
		}

		n.booking(c, "approved", events.BookingApproved, res.Booking.UserEmail, res.Booking)
		return c.JSON(fiber.Map{
			"bookingUpdate": fiber.Map{"modifiedCount": res.BookingsModified},
			"userUpdate":    fiber.Map{"modifiedCount": res.UsersModified},
		})
	}
}

// RejectBooking handles DELETE /bookings/reject/:id. Admin only.
// The booking is deleted, not kept with a status.
func RejectBooking(bookings *store.Bookings, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		booking, err := bookings.Get(c.UserContext(), id)
		if err != nil {
			return bookingWriteError(err, "Failed to reject booking")
		}

		deleted, err := bookings.Reject(c.UserContext(), id)
		if err != nil {
			return bookingWriteError(err, "Failed to reject booking")
		}

		n.booking(c, "rejected", events.BookingRejected, booking.UserEmail, booking)
		return c.JSON(fiber.Map{"deletedCount": deleted})
	}
}

// DeleteBooking handles DELETE /bookings/:id. Owner or admin, any status.
func DeleteBooking(bookings *store.Bookings, users middleware.UserLookup, n *Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, err := ownedBooking(c, bookings, users)
		if err != nil {
			return err
		}

		deleted, err := bookings.Delete(c.UserContext(), booking.ID)
		if err != nil {
			return apperr.Internal(err, "Failed to delete booking")
		}
		if deleted == 0 {
			return apperr.NotFound("Booking not found")
		}

		n.booking(c, "deleted", events.BookingDeleted, booking.UserEmail, booking)
		return c.JSON(fiber.Map{"deletedCount": deleted})
	}
}

// ownedBooking loads the :id booking and checks that the caller owns it or
// is an admin.
func ownedBooking(c *fiber.Ctx, bookings *store.Bookings, users middleware.UserLookup) (*models.Booking, error) {
	caller, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, apperr.Unauthenticated("Unauthorized access")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}

	booking, err := bookings.Get(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch booking")
	}
	if strings.EqualFold(booking.UserEmail, caller.Email) {
		return booking, nil
	}

	// Not the owner: only an admin may touch someone else's booking.
	user, err := middleware.CurrentUser(c, users)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Forbidden("Forbidden access")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to verify role")
	}
	if user.EffectiveRole() != models.RoleAdmin {
		return nil, apperr.Forbidden("Forbidden access")
	}
	return booking, nil
}

func bookingWriteError(err error, message string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Booking not found")
	case errors.Is(err, store.ErrNotPending):
		return apperr.Wrap(apperr.KindBadRequest, err, "Booking is not pending")
	}
	return apperr.Internal(err, message)
}
