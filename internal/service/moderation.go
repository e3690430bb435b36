package service

import (
	"github.com/Euphemus333/arabot/internal/models"
	"github.com/Euphemus333/arabot/internal/storage"

	"gorm.io/gorm"
)

// ModerationStore is the persistent moderation record store consumed by the
// restriction workflows. It composes the storage repositories and owns no
// business logic beyond the unique-active-record invariant enforced by the
// restriction table itself.
type ModerationStore struct {
	restrictions *storage.RestrictionRepository
	members      *storage.MemberRepository
	resources    *storage.ResourceRepository
}

// NewModerationStore creates the store and migrates its tables.
func NewModerationStore(db *gorm.DB) (*ModerationStore, error) {
	store := &ModerationStore{
		restrictions: storage.NewRestrictionRepository(db),
		members:      storage.NewMemberRepository(db),
		resources:    storage.NewResourceRepository(db),
	}
	if err := store.members.MigrateTable(); err != nil {
		return nil, err
	}
	if err := store.restrictions.MigrateTable(); err != nil {
		return nil, err
	}
	if err := store.resources.MigrateTable(); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureMember upserts a member row.
func (s *ModerationStore) EnsureMember(memberID string) error {
	return s.members.Upsert(memberID)
}

// HasActiveRestriction reports whether the member has an active restriction.
func (s *ModerationStore) HasActiveRestriction(memberID string) (bool, error) {
	return s.restrictions.HasActive(memberID)
}

// CreateRestriction opens a new restriction record. Returns
// storage.ErrConflict if the member already has an active one.
func (s *ModerationStore) CreateRestriction(memberID, moderatorID, reason string, section int) (*models.RestrictionRecord, error) {
	return s.restrictions.Create(memberID, moderatorID, reason, section)
}

// CloseRestriction closes the member's active restriction. Returns
// storage.ErrNotFound if none exists.
func (s *ModerationStore) CloseRestriction(memberID, moderatorID string) error {
	return s.restrictions.Close(memberID, moderatorID)
}

// CloseLegacyRestriction writes a closing audit record for a restriction
// applied by the predecessor bot.
func (s *ModerationStore) CloseLegacyRestriction(memberID, moderatorID string, section int) error {
	return s.restrictions.CreateLegacyClosure(memberID, moderatorID, section)
}

// CreatePlaceholder records a member who could not be resolved on the guild.
func (s *ModerationStore) CreatePlaceholder(memberID string) error {
	return s.members.CreatePlaceholder(memberID)
}

// SaveRoleSnapshot replaces the member's stored pre-restriction role set.
func (s *ModerationStore) SaveRoleSnapshot(memberID string, roleIDs []string) error {
	return s.members.SaveRoleSnapshot(memberID, roleIDs)
}

// FetchRoleSnapshot returns the member's stored role set.
func (s *ModerationStore) FetchRoleSnapshot(memberID string) ([]string, error) {
	return s.members.FetchRoleSnapshot(memberID)
}

// SaveResourcePair records the channels provisioned for a restricted member.
func (s *ModerationStore) SaveResourcePair(memberID, textChannelID, voiceChannelID string) error {
	return s.resources.Create(memberID, textChannelID, voiceChannelID)
}

// FetchResourcePairs returns the channels recorded for a member.
func (s *ModerationStore) FetchResourcePairs(memberID string) ([]*models.ResourcePair, error) {
	return s.resources.GetByMember(memberID)
}

// DeleteResourcePairs removes the member's resource pair rows after teardown.
func (s *ModerationStore) DeleteResourcePairs(memberID string) error {
	return s.resources.DeleteByMember(memberID)
}
