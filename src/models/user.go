package models

import "standup/src/types"

type User struct {
	Email             string `gorm:"primaryKey" json:"email"`
	DisplayName       string `gorm:"not null" json:"displayName"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	ProfilePictureUrl string `json:"profilePictureUrl,omitempty"`
	Blocked           bool   `gorm:"not null" json:"blocked"`

	types.Timestamps
}
