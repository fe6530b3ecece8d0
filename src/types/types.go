package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"createdAt,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updatedAt,omitempty"`
}

func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	}
	return errors.New("type assertion to []byte failed")
}

// StringList is a jsonb array of strings. Order is preserved.
type StringList []string

func (a StringList) Value() (driver.Value, error) {
	if a == nil {
		a = StringList{}
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringList) Scan(value any) error {
	return scanJSON(value, a)
}

func (a StringList) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with every occurrence of s removed.
func (a StringList) Without(s string) StringList {
	out := make(StringList, 0, len(a))
	for _, v := range a {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

type Meeting struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	WeekdayTime []string `json:"weekdayTime"`
}

type Meetings []Meeting

func (a Meetings) Value() (driver.Value, error) {
	if a == nil {
		a = Meetings{}
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *Meetings) Scan(value any) error {
	return scanJSON(value, a)
}

// Index returns the position of the named meeting or -1.
func (a Meetings) Index(name string) int {
	for i, m := range a {
		if m.Name == name {
			return i
		}
	}
	return -1
}

type Presentation struct {
	PrevWork  string `json:"prevWork"`
	PlanToday string `json:"planToday"`
	BlockedBy string `json:"blockedBy,omitempty"`
}

func (a Presentation) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *Presentation) Scan(value any) error {
	return scanJSON(value, a)
}

type StatusSnapshot struct {
	Email        string       `json:"email"`
	IsBlocked    bool         `json:"isBlocked"`
	Presentation Presentation `json:"presentation"`
}

type StatusSnapshots []StatusSnapshot

func (a StatusSnapshots) Value() (driver.Value, error) {
	if a == nil {
		a = StatusSnapshots{}
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StatusSnapshots) Scan(value any) error {
	return scanJSON(value, a)
}

type PictureKind string

const (
	PictureUser PictureKind = "users"
	PictureTeam PictureKind = "teams"
)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type TeamEventType string

const (
	EventMemberApplied        TeamEventType = "team.member_applied"
	EventMemberAdded          TeamEventType = "team.member_added"
	EventMemberRemoved        TeamEventType = "team.member_removed"
	EventPendingRemoved       TeamEventType = "team.pending_removed"
	EventTeamDeleted          TeamEventType = "team.deleted"
	EventMeetingRecordCreated TeamEventType = "team.meeting_record_created"
)

type TeamEvent struct {
	Type   TeamEventType `json:"type"`
	TeamID string        `json:"teamId"`
	Email  string        `json:"email,omitempty"`
	Actor  string        `json:"actor"`
	At     time.Time     `json:"at"`
}

// URI parameters

type TeamURIParams struct {
	ID string `uri:"id" binding:"required"`
}

type TeamMemberURIParams struct {
	ID    string `uri:"id" binding:"required"`
	Email string `uri:"email" binding:"required"`
}

type TeamMeetingURIParams struct {
	ID          string `uri:"id" binding:"required"`
	MeetingName string `uri:"meetingName" binding:"required"`
}

type EmailURIParams struct {
	Email string `uri:"email" binding:"required"`
}

type MeetingRecordURIParams struct {
	TeamID string `uri:"teamId" binding:"required"`
}

// Request bodies

type CreateTeamRequestBody struct {
	Name       string `json:"name" binding:"required,notblank"`
	OwnerEmail string `json:"ownerEmail" binding:"omitempty,email"`
}

type UpdateTeamRequestBody struct {
	Name           *string `json:"name" binding:"omitempty,notblank"`
	OwnerEmail     *string `json:"ownerEmail"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,picture"`
}

type TeamMemberRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type AnnouncementRequestBody struct {
	Announcement *string `json:"announcement" binding:"required"`
}

type CreateMeetingRequestBody struct {
	Name        string   `json:"name" binding:"required,notblank"`
	Description string   `json:"description"`
	WeekdayTime []string `json:"weekdayTime" binding:"required,min=1,dive,weekdaytime"`
}

type RegisterUserRequestBody struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName" binding:"required,notblank"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

type UpdateUserRequestBody struct {
	DisplayName    string  `json:"displayName" binding:"required,notblank"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,picture"`
}

type PresentationRequestBody struct {
	PrevWork  string `json:"prevWork" binding:"required"`
	PlanToday string `json:"planToday" binding:"required"`
	BlockedBy string `json:"blockedBy"`
}

type UpdateUserStatusRequestBody struct {
	IsBlocked    *bool                    `json:"isBlocked" binding:"required"`
	Presentation *PresentationRequestBody `json:"presentation" binding:"required"`
}

type CreateMeetingRecordRequestBody struct {
	DateTime    string `json:"dateTime" binding:"required,notblank"`
	MeetingName string `json:"meetingName"`
}
