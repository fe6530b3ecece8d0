package models

import "standup/src/types"

type UserStatus struct {
	Email        string             `gorm:"primaryKey" json:"email"`
	IsBlocked    bool               `gorm:"not null" json:"isBlocked"`
	Presentation types.Presentation `gorm:"type:jsonb" json:"presentation"`

	types.Timestamps
}

// NewDefaultUserStatus is the status every user starts with on registration.
func NewDefaultUserStatus(email string) *UserStatus {
	return &UserStatus{Email: email}
}

func (s *UserStatus) Snapshot() types.StatusSnapshot {
	return types.StatusSnapshot{
		Email:        s.Email,
		IsBlocked:    s.IsBlocked,
		Presentation: s.Presentation,
	}
}
