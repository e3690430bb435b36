package storage

import (
	"errors"
	"time"

	"github.com/Euphemus333/arabot/internal/models"

	"gorm.io/gorm"
)

// RestrictionRepository handles database operations for RestrictionRecord
type RestrictionRepository struct {
	db *gorm.DB
}

// NewRestrictionRepository creates a new RestrictionRepository
func NewRestrictionRepository(db *gorm.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// MigrateTable ensures the RestrictionRecord table exists
func (r *RestrictionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.RestrictionRecord{})
}

// HasActive reports whether the member currently has an active restriction
func (r *RestrictionRepository) HasActive(memberID string) (bool, error) {
	var count int64
	result := r.db.Model(&models.RestrictionRecord{}).
		Where("member_id = ? AND active = ?", memberID, true).
		Count(&count)
	return count > 0, result.Error
}

// Create inserts a new active RestrictionRecord. The unique index on
// (member_id, active) makes this an atomic conditional insert: a second
// active record for the same member fails with ErrConflict even when two
// invocations race past the HasActive fast path.
func (r *RestrictionRepository) Create(memberID, moderatorID, reason string, section int) (*models.RestrictionRecord, error) {
	active := true
	record := &models.RestrictionRecord{
		MemberID:    memberID,
		ModeratorID: moderatorID,
		Reason:      reason,
		Section:     section,
		Active:      &active,
	}
	if err := r.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return record, nil
}

// Close closes the member's active restriction. Active is set to NULL
// rather than false so closed history rows never collide on the unique
// index.
func (r *RestrictionRepository) Close(memberID, moderatorID string) error {
	now := time.Now()
	result := r.db.Model(&models.RestrictionRecord{}).
		Where("member_id = ? AND active = ?", memberID, true).
		Updates(map[string]interface{}{
			"active":    nil,
			"closed_by": moderatorID,
			"closed_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLegacyClosure writes an already-closed record for a restriction
// that was applied by the predecessor bot, for audit purposes. The section
// is the tier inferred from the role the member held.
func (r *RestrictionRepository) CreateLegacyClosure(memberID, moderatorID string, section int) error {
	now := time.Now()
	record := &models.RestrictionRecord{
		MemberID:    memberID,
		ModeratorID: moderatorID,
		Reason:      "Restriction applied by the previous bot",
		Section:     section,
		Active:      nil,
		Legacy:      true,
		ClosedBy:    moderatorID,
		ClosedAt:    &now,
	}
	return r.db.Create(record).Error
}

// GetByMember returns all records for a member, newest first
func (r *RestrictionRepository) GetByMember(memberID string) ([]*models.RestrictionRecord, error) {
	var records []*models.RestrictionRecord
	result := r.db.Where("member_id = ?", memberID).Order("id DESC").Find(&records)
	return records, result.Error
}
