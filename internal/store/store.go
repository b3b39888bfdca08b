// Package store is the data-access layer. Each collection (users, courts,
// bookings, announcements) gets a small type wrapping the shared *gorm.DB,
// with one method per operation the API needs.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by id or email matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when a booking transition is attempted on a
	// booking that has already left the pending state.
	ErrNotPending = errors.New("booking is not pending")
)

// Store groups the collections so they can be passed around as one value.
type Store struct {
	Users         *Users
	Courts        *Courts
	Bookings      *Bookings
	Announcements *Announcements
}

// New builds every collection on top of the same connection.
func New(db *gorm.DB) *Store {
	return &Store{
		Users:         NewUsers(db),
		Courts:        NewCourts(db),
		Bookings:      NewBookings(db),
		Announcements: NewAnnouncements(db),
	}
}

// Stats is the aggregate shown on the admin dashboard.
type Stats struct {
	Users            int64 `json:"users"`
	Members          int64 `json:"members"`
	Courts           int64 `json:"courts"`
	Bookings         int64 `json:"bookings"`
	PendingBookings  int64 `json:"pendingBookings"`
	ApprovedBookings int64 `json:"approvedBookings"`
	Announcements    int64 `json:"announcements"`
}

// Stats counts documents across all collections. The counts are independent
// queries, so they are not a consistent snapshot.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		out Stats
		err error
	)
	if out.Users, err = s.Users.Count(ctx, ""); err != nil {
		return Stats{}, err
	}
	if out.Members, err = s.Users.Count(ctx, models.RoleMember); err != nil {
		return Stats{}, err
	}
	if out.Courts, err = s.Courts.Count(ctx); err != nil {
		return Stats{}, err
	}
	if out.Bookings, err = s.Bookings.Count(ctx, ""); err != nil {
		return Stats{}, err
	}
	if out.PendingBookings, err = s.Bookings.Count(ctx, models.BookingStatusPending); err != nil {
		return Stats{}, err
	}
	if out.ApprovedBookings, err = s.Bookings.Count(ctx, models.BookingStatusApproved); err != nil {
		return Stats{}, err
	}
	if out.Announcements, err = s.Announcements.Count(ctx); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// notFound maps GORM's "no rows" error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching q anywhere.
// Use it with "LOWER(col) LIKE ? ESCAPE '\'".
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
