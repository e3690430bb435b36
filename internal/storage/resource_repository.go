package storage

import (
	"github.com/Euphemus333/arabot/internal/models"

	"gorm.io/gorm"
)

// ResourceRepository handles database operations for ResourcePair
type ResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository creates a new ResourceRepository
func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// MigrateTable ensures the ResourcePair table exists
func (r *ResourceRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ResourcePair{})
}

// Create inserts a new ResourcePair
func (r *ResourceRepository) Create(memberID, textChannelID, voiceChannelID string) error {
	pair := &models.ResourcePair{
		MemberID:       memberID,
		TextChannelID:  textChannelID,
		VoiceChannelID: voiceChannelID,
	}
	return r.db.Create(pair).Error
}

// GetByMember returns all resource pairs recorded for a member
func (r *ResourceRepository) GetByMember(memberID string) ([]*models.ResourcePair, error) {
	var pairs []*models.ResourcePair
	result := r.db.Where("member_id = ?", memberID).Find(&pairs)
	return pairs, result.Error
}

// DeleteByMember removes all resource pair rows for a member
func (r *ResourceRepository) DeleteByMember(memberID string) error {
	return r.db.Where("member_id = ?", memberID).Delete(&models.ResourcePair{}).Error
}
