package models

import (
	"time"

	"standup/src/types"
)

// MeetingRecord is immutable once created.
type MeetingRecord struct {
	TeamID        string                `gorm:"primaryKey" json:"teamId"`
	DateTime      string                `gorm:"primaryKey" json:"dateTime"`
	MeetingName   string                `json:"meetingName,omitempty"`
	Presentations types.StatusSnapshots `gorm:"type:jsonb" json:"presentations"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"createdAt"`
}
