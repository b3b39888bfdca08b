package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/database"
	"github.com/trentd187/sports-club/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, s *Store, email, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: name}
	created, err := s.Users.CreateIfAbsent(context.Background(), u, time.Now())
	require.NoError(t, err)
	require.True(t, created)
	if role != "" {
		require.NoError(t, s.Users.db.Model(u).Update("role", role).Error)
		u.Role = role
	}
	return u
}

func TestUsers_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	u := &models.User{Email: "  Ann@Example.com ", Name: "Ann", Role: models.RoleAdmin}
	created, err := s.Users.CreateIfAbsent(ctx, u, time.Now())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.EffectiveRole(), "sign-up never grants a role")

	later := time.Now().Add(time.Hour)
	again := &models.User{Email: "ann@example.com", Name: "Someone else"}
	created, err = s.Users.CreateIfAbsent(ctx, again, later)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Ann", again.Name)

	n, err := s.Users.Count(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := s.Users.FindByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.WithinDuration(t, later, *stored.LastLoginAt, time.Second)
}

func TestUsers_CreateIfAbsent_LosesRace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := New(db)

	// Another sign-up for the same email lands between the existence check
	// and our insert.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("test:concurrent_signup", func(tx *gorm.DB) {
		u, ok := tx.Statement.Dest.(*models.User)
		if !ok || raced {
			return
		}
		raced = true
		now := time.Now()
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO users (id, email, name, photo, role, created_at, updated_at) VALUES (?, ?, ?, '', '', ?, ?)",
			uuid.NewString(), u.Email, "First", now, now)
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)

	u := &models.User{Email: "race@example.com", Name: "Second"}
	created, err := s.Users.CreateIfAbsent(ctx, u, time.Now())
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, raced)
}

func TestUsers_FindByEmail_NotFound(t *testing.T) {
	s := New(newTestDB(t))
	_, err := s.Users.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_Search(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	seedUser(t, s, "alice@club.test", "Alice Smith", models.RoleMember)
	seedUser(t, s, "bob@club.test", "Bob Jones", "")
	seedUser(t, s, "carol@other.test", "Carol SMITHERS", models.RoleMember)
	seedUser(t, s, "under_score@club.test", "Dan", "")

	all, err := s.Users.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	smiths, err := s.Users.Search(ctx, "smith", "")
	require.NoError(t, err)
	assert.Len(t, smiths, 2)

	byEmail, err := s.Users.Search(ctx, "CLUB.TEST", "")
	require.NoError(t, err)
	assert.Len(t, byEmail, 3)

	members, err := s.Users.Search(ctx, "club", models.RoleMember)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice@club.test", members[0].Email)

	// LIKE wildcards in the query are matched literally.
	literal, err := s.Users.Search(ctx, "e_s", "")
	require.NoError(t, err)
	assert.Empty(t, literal)
	underscore, err := s.Users.Search(ctx, "under_", "")
	require.NoError(t, err)
	assert.Len(t, underscore, 1)
}

func TestUsers_DeleteMember(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	member := seedUser(t, s, "m@club.test", "M", models.RoleMember)
	plain := seedUser(t, s, "u@club.test", "U", "")

	n, err := s.Users.DeleteMember(ctx, plain.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Users.DeleteMember(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Users.Delete(ctx, plain.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Users.Delete(ctx, plain.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func newCourt(name string) models.Court {
	return models.Court{
		Name:  name,
		Type:  "tennis",
		Price: decimal.RequireFromString("25.50"),
		Slots: datatypes.JSONSlice[string]{"08:00", "09:00"},
	}
}

func TestCourts_PageAndCount(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	courts := make([]models.Court, 0, 8)
	for i := 0; i < 8; i++ {
		courts = append(courts, newCourt(string(rune('A'+i))))
	}
	n, err := s.Courts.CreateMany(ctx, courts)
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)

	first, total, err := s.Courts.Page(ctx, 1, 6)
	require.NoError(t, err)
	assert.EqualValues(t, 8, total)
	assert.Len(t, first, 6)

	second, _, err := s.Courts.Page(ctx, 2, 6)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	seen := map[uuid.UUID]bool{}
	for _, c := range append(first, second...) {
		assert.False(t, seen[c.ID], "court %s appears on two pages", c.Name)
		seen[c.ID] = true
	}

	beyond, _, err := s.Courts.Page(ctx, 3, 6)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// Offsets that would overflow int must not wrap around to the first page.
	huge, total, err := s.Courts.Page(ctx, math.MaxInt/6+2, 6)
	require.NoError(t, err)
	assert.Empty(t, huge)
	assert.EqualValues(t, 8, total)

	last, _, err := s.Courts.Page(ctx, math.MaxInt/6, 6)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestCourts_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	c := newCourt("Centre")
	c.Attributes = datatypes.JSONMap{"surface": "clay"}
	require.NoError(t, s.Courts.Create(ctx, &c))

	got, err := s.Courts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Centre", got.Name)
	assert.True(t, decimal.RequireFromString("25.5").Equal(got.Price))
	assert.Equal(t, []string{"08:00", "09:00"}, []string(got.Slots))
	assert.Equal(t, "clay", got.Attributes["surface"])

	_, err = s.Courts.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourts_Update(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	c := newCourt("Centre")
	c.Attributes = datatypes.JSONMap{"surface": "clay", "indoor": false}
	require.NoError(t, s.Courts.Create(ctx, &c))

	matched, modified, err := s.Courts.Update(ctx, c.ID, CourtPatch{
		Columns:    map[string]any{"name": "Court 1", "price": decimal.NewFromInt(30)},
		Attributes: map[string]any{"indoor": true, "surface": nil, "lights": "yes"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)
	assert.EqualValues(t, 1, modified)

	got, err := s.Courts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Court 1", got.Name)
	assert.Equal(t, "tennis", got.Type)
	assert.True(t, decimal.NewFromInt(30).Equal(got.Price))
	assert.Equal(t, true, got.Attributes["indoor"])
	assert.Equal(t, "yes", got.Attributes["lights"])
	assert.NotContains(t, got.Attributes, "surface")

	matched, modified, err = s.Courts.Update(ctx, uuid.New(), CourtPatch{Columns: map[string]any{"name": "x"}})
	require.NoError(t, err)
	assert.Zero(t, matched)
	assert.Zero(t, modified)

	matched, modified, err = s.Courts.Update(ctx, c.ID, CourtPatch{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)
	assert.Zero(t, modified)
}

func TestCourts_Delete(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	c := newCourt("Gone")
	require.NoError(t, s.Courts.Create(ctx, &c))

	n, err := s.Courts.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Courts.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func newBooking(email string) *models.Booking {
	return &models.Booking{
		UserEmail: email,
		CourtID:   uuid.NewString(),
		CourtName: "Centre",
		Date:      "2026-05-01",
		Slots:     datatypes.JSONSlice[string]{"08:00"},
		Price:     decimal.NewFromInt(20),
		Status:    models.BookingStatusApproved,
	}
}

func TestBookings_CreateForcesPending(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	b := newBooking("ann@club.test")
	require.NoError(t, s.Bookings.Create(ctx, b))
	assert.Equal(t, models.BookingStatusPending, b.Status)

	pending, err := s.Bookings.List(ctx, models.BookingStatusPending, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	approved, err := s.Bookings.List(ctx, models.BookingStatusApproved, "")
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestBookings_ListByEmail(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	require.NoError(t, s.Bookings.Create(ctx, newBooking("ann@club.test")))
	require.NoError(t, s.Bookings.Create(ctx, newBooking("ann@club.test")))
	require.NoError(t, s.Bookings.Create(ctx, newBooking("bob@club.test")))

	anns, err := s.Bookings.List(ctx, models.BookingStatusPending, "Ann@Club.test")
	require.NoError(t, err)
	assert.Len(t, anns, 2)
	for _, b := range anns {
		assert.Equal(t, "ann@club.test", b.UserEmail)
	}
}

func TestBookings_Approve(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	seedUser(t, s, "ann@club.test", "Ann", "")

	b := newBooking("ann@club.test")
	require.NoError(t, s.Bookings.Create(ctx, b))

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	res, err := s.Bookings.Approve(ctx, b.ID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.BookingsModified)
	assert.EqualValues(t, 1, res.UsersModified)
	assert.Equal(t, models.BookingStatusApproved, res.Booking.Status)

	u, err := s.Users.FindByEmail(ctx, "ann@club.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, u.Role)
	require.NotNil(t, u.MembershipDate)
	assert.True(t, now.Equal(u.MembershipDate.UTC()))

	approved, err := s.Bookings.List(ctx, models.BookingStatusApproved, "ann@club.test")
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	_, err = s.Bookings.Approve(ctx, b.ID, now)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = s.Bookings.Approve(ctx, uuid.New(), now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookings_ApproveWithoutUserAndAdmin(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	orphan := newBooking("ghost@club.test")
	require.NoError(t, s.Bookings.Create(ctx, orphan))
	res, err := s.Bookings.Approve(ctx, orphan.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.BookingsModified)
	assert.Zero(t, res.UsersModified)

	seedUser(t, s, "boss@club.test", "Boss", models.RoleAdmin)
	own := newBooking("boss@club.test")
	require.NoError(t, s.Bookings.Create(ctx, own))
	res, err = s.Bookings.Approve(ctx, own.ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.UsersModified)

	boss, err := s.Users.FindByEmail(ctx, "boss@club.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)
}

func TestBookings_CancelAndReject(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	b := newBooking("ann@club.test")
	require.NoError(t, s.Bookings.Create(ctx, b))

	n, err := s.Bookings.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.Bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)

	_, err = s.Bookings.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = s.Bookings.Reject(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = s.Bookings.Cancel(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	other := newBooking("bob@club.test")
	require.NoError(t, s.Bookings.Create(ctx, other))
	n, err = s.Bookings.Reject(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = s.Bookings.Get(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = s.Bookings.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAnnouncements_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))

	a := &models.Announcement{Title: "Open day", Content: "Saturday", AuthorEmail: "boss@club.test"}
	require.NoError(t, s.Announcements.Create(ctx, a))

	matched, modified, err := s.Announcements.Update(ctx, a.ID, map[string]any{"title": "Open day!"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)
	assert.EqualValues(t, 1, modified)

	matched, _, err = s.Announcements.Update(ctx, uuid.New(), map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Zero(t, matched)

	list, err := s.Announcements.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Open day!", list[0].Title)

	n, err := s.Announcements.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t))
	seedUser(t, s, "ann@club.test", "Ann", "")
	seedUser(t, s, "bob@club.test", "Bob", models.RoleMember)
	c := newCourt("Centre")
	require.NoError(t, s.Courts.Create(ctx, &c))
	b1 := newBooking("ann@club.test")
	require.NoError(t, s.Bookings.Create(ctx, b1))
	require.NoError(t, s.Bookings.Create(ctx, newBooking("bob@club.test")))
	_, err := s.Bookings.Approve(ctx, b1.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Announcements.Create(ctx, &models.Announcement{Title: "Hi"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Users:            2,
		Members:          2,
		Courts:           1,
		Bookings:         2,
		PendingBookings:  1,
		ApprovedBookings: 1,
		Announcements:    1,
	}, stats)
}
