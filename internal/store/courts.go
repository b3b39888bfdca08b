package store

import (
	"context"
	"errors"
	"maps"
	"math"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/trentd187/sports-club/internal/models"
)

// Courts is the courts catalog.
type Courts struct {
	db *gorm.DB
}

func NewCourts(db *gorm.DB) *Courts {
	return &Courts{db: db}
}

// CourtPatch is a partial court update. Columns holds first-class column
// values keyed by column name; Attributes is merged into the existing
// free-form attributes (a nil value removes the key).
type CourtPatch struct {
	Columns    map[string]any
	Attributes map[string]any
}

// Empty reports whether the patch would change nothing.
func (p CourtPatch) Empty() bool {
	return len(p.Columns) == 0 && len(p.Attributes) == 0
}

// Page returns one page of courts (oldest first, so pages are stable while
// new courts are appended) together with the total number of courts.
// page is 1-based.
func (s *Courts) Page(ctx context.Context, page, limit int) ([]models.Court, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Court{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	courts := []models.Court{}
	// A page past the end of int would overflow the offset; no such page can exist.
	if page < 1 || limit < 1 || page-1 > math.MaxInt/limit {
		return courts, total, nil
	}
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courts).Error
	if err != nil {
		return nil, 0, err
	}
	return courts, total, nil
}

// All returns every court, oldest first.
func (s *Courts) All(ctx context.Context) ([]models.Court, error) {
	courts := []models.Court{}
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&courts).Error; err != nil {
		return nil, err
	}
	return courts, nil
}

// Get returns one court or ErrNotFound.
func (s *Courts) Get(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	var c models.Court
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Create inserts c, assigning a fresh id.
func (s *Courts) Create(ctx context.Context, c *models.Court) error {
	c.ID = uuid.New()
	return s.db.WithContext(ctx).Create(c).Error
}

// CreateMany inserts all courts in one batch and returns how many were inserted.
func (s *Courts) CreateMany(ctx context.Context, courts []models.Court) (int64, error) {
	if len(courts) == 0 {
		return 0, nil
	}
	for i := range courts {
		courts[i].ID = uuid.New()
	}
	// Batches keep each INSERT under the driver's bound-parameter limit.
	res := s.db.WithContext(ctx).CreateInBatches(&courts, 100)
	return res.RowsAffected, res.Error
}

// Update applies p to the court with the given id. matched is 0 when the
// court does not exist; modified is the number of rows written.
func (s *Courts) Update(ctx context.Context, id uuid.UUID, p CourtPatch) (matched, modified int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Court
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		matched = 1
		if p.Empty() {
			return nil
		}

		// Attributes are one JSON column, so merge into a copy and write it whole.
		values := make(map[string]any, len(p.Columns)+1)
		maps.Copy(values, p.Columns)
		if len(p.Attributes) > 0 {
			attrs := datatypes.JSONMap{}
			maps.Copy(attrs, c.Attributes)
			for k, v := range p.Attributes {
				if v == nil {
					delete(attrs, k)
					continue
				}
				attrs[k] = v
			}
			values["attributes"] = attrs
		}

		res := tx.Model(&models.Court{}).Where("id = ?", id).Updates(values)
		modified = res.RowsAffected
		return res.Error
	})
	// Unknown id: nothing matched, which is not an error here.
	if errors.Is(err, ErrNotFound) {
		return 0, 0, nil
	}
	return matched, modified, err
}

// Delete removes a court and returns how many rows were deleted.
func (s *Courts) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Court{})
	return res.RowsAffected, res.Error
}

// Count returns the number of courts.
func (s *Courts) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Court{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
