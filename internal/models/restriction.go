package models

import "time"

// RestrictionRecord stores a restriction applied to a member.
// At most one record per member may be active at any time: Active is true
// while the restriction is open and NULL once closed, and the composite
// unique index on (member_id, active) lets the database reject a concurrent
// duplicate create while keeping any number of closed history rows.
type RestrictionRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MemberID    string `gorm:"size:32;not null;uniqueIndex:uniq_member_active,priority:1;index"`
	ModeratorID string `gorm:"size:32;not null"`
	Reason      string `gorm:"type:text"`
	Section     int    `gorm:"not null"`
	Active      *bool  `gorm:"uniqueIndex:uniq_member_active,priority:2"`
	// Legacy marks a closure written for a restriction applied by the
	// predecessor bot, where no open record ever existed in this store.
	Legacy    bool   `gorm:"default:false"`
	ClosedBy  string `gorm:"size:32;default:''"`
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// IsActive reports whether the record is still open.
func (r *RestrictionRecord) IsActive() bool {
	return r.Active != nil && *r.Active
}
