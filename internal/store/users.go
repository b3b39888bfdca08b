package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/models"
)

// Users is the users collection.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// FindByEmail returns the user with the given email or ErrNotFound.
func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateIfAbsent inserts u unless a user with the same email exists already.
// It reports whether a new row was created. An existing user only gets its
// last-login timestamp refreshed.
//
// The check and the insert are separate statements. Two concurrent sign-ups
// for one email can both pass the check; the unique index on email makes the
// loser fail with a duplicate-key error, which is reported as "not created".
func (s *Users) CreateIfAbsent(ctx context.Context, u *models.User, now time.Time) (bool, error) {
	u.Email = normalizeEmail(u.Email)

	existing, err := s.FindByEmail(ctx, u.Email)
	switch {
	case err == nil:
		err = s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", existing.ID).
			Update("last_login_at", now).Error
		*u = *existing
		u.LastLoginAt = &now
		return false, err
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.LastLoginAt = &now
	// Roles are only ever granted by approval or by an admin, never at sign-up.
	u.Role = ""
	u.MembershipDate = nil

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Search lists users whose name or email contains query (case-insensitive).
// An empty role matches every user; otherwise only users holding that role.
// Results are not paginated.
func (s *Users) Search(ctx context.Context, query string, role models.Role) ([]models.User, error) {
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		tx = tx.Where("role = ?", role)
	}
	if q := strings.TrimSpace(query); q != "" {
		pattern := containsPattern(q)
		tx = tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	users := []models.User{}
	if err := tx.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user by id and returns how many rows were deleted.
func (s *Users) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	return res.RowsAffected, res.Error
}

// DeleteMember removes a user by id only if they currently hold the member role.
func (s *Users) DeleteMember(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, models.RoleMember).
		Delete(&models.User{})
	return res.RowsAffected, res.Error
}

// Count returns the number of users, optionally restricted to one role.
func (s *Users) Count(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		tx = tx.Where("role = ?", role)
	}
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
