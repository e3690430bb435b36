package models

import "time"

// ResourcePair links a restricted member to the isolated text and voice
// channels provisioned for them. The text channel's topic carries the same
// member and voice-channel IDs as a human-readable mirror, and teardown
// still scans topics so pairs created by the predecessor bot (which had no
// table) are found too.
type ResourcePair struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	MemberID       string `gorm:"size:32;not null;index"`
	TextChannelID  string `gorm:"size:32;not null"`
	VoiceChannelID string `gorm:"size:32;not null"`
	CreatedAt      time.Time
}
