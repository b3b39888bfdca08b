package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/models"
)

type Announcements struct {
	db *gorm.DB
}

func NewAnnouncements(db *gorm.DB) *Announcements {
	return &Announcements{db: db}
}

// List returns all announcements, newest first.
func (s *Announcements) List(ctx context.Context) ([]models.Announcement, error) {
	out := []models.Announcement{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a with a fresh id.
func (s *Announcements) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = uuid.New()
	return s.db.WithContext(ctx).Create(a).Error
}

// Update sets the given columns (title, content) on one announcement.
// matched is 0 when the id is unknown.
func (s *Announcements) Update(ctx context.Context, id uuid.UUID, values map[string]any) (matched, modified int64, err error) {
	// Count first: an update that changes nothing still has to report a match.
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Announcement{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return 0, 0, err
	}
	if n == 0 || len(values) == 0 {
		return n, 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Announcement{}).Where("id = ?", id).Updates(values)
	return n, res.RowsAffected, res.Error
}

// Delete removes one announcement and returns how many rows were deleted.
func (s *Announcements) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Announcement{})
	return res.RowsAffected, res.Error
}

func (s *Announcements) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Announcement{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
