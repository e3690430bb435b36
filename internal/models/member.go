package models

import "time"

// Member records that a user is known to the moderation store. Rows are
// upserted before any workflow mutates state for the user, so restriction
// records always reference a known member.
//
// Placeholder is set when the member could not be resolved on the guild at
// restriction time (for example they already left); the restriction still
// applies and is picked up when they return.
type Member struct {
	ID          string `gorm:"primaryKey;size:32"`
	Placeholder bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleSnapshot stores one role a member held immediately before being
// restricted, so the full set can be restored on unrestriction.
type RoleSnapshot struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	MemberID string `gorm:"size:32;not null;index"`
	RoleID   string `gorm:"size:32;not null"`
}
