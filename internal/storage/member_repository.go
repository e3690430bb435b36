package storage

import (
	"github.com/Euphemus333/arabot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository handles database operations for Member and RoleSnapshot
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// MigrateTable ensures the Member and RoleSnapshot tables exist
func (r *MemberRepository) MigrateTable() error {
	if err := r.db.AutoMigrate(&models.Member{}); err != nil {
		return err
	}
	return r.db.AutoMigrate(&models.RoleSnapshot{})
}

// Upsert ensures a member row exists. An existing row is left untouched.
func (r *MemberRepository) Upsert(memberID string) error {
	member := &models.Member{ID: memberID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
}

// CreatePlaceholder ensures a member row exists and flags it as a
// placeholder for a member who could not be resolved on the guild.
func (r *MemberRepository) CreatePlaceholder(memberID string) error {
	member := &models.Member{ID: memberID, Placeholder: true}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
	if err != nil {
		return err
	}
	return r.db.Model(&models.Member{}).Where("id = ?", memberID).
		Update("placeholder", true).Error
}

// ClearPlaceholder removes the placeholder flag once the member has been
// processed as present.
func (r *MemberRepository) ClearPlaceholder(memberID string) error {
	return r.db.Model(&models.Member{}).Where("id = ?", memberID).
		Update("placeholder", false).Error
}

// SaveRoleSnapshot replaces the member's stored role set
func (r *MemberRepository) SaveRoleSnapshot(memberID string, roleIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).Delete(&models.RoleSnapshot{}).Error; err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			snapshot := &models.RoleSnapshot{MemberID: memberID, RoleID: roleID}
			if err := tx.Create(snapshot).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchRoleSnapshot returns the member's stored role set, which may be
// empty for placeholder members that were never resolved.
func (r *MemberRepository) FetchRoleSnapshot(memberID string) ([]string, error) {
	var snapshots []*models.RoleSnapshot
	result := r.db.Where("member_id = ?", memberID).Find(&snapshots)
	if result.Error != nil {
		return nil, result.Error
	}
	roleIDs := make([]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		roleIDs = append(roleIDs, snapshot.RoleID)
	}
	return roleIDs, nil
}
