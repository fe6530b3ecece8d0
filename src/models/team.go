package models

import "standup/src/types"

// Team is the source of truth for membership. UserInTeam rows index it by
// user email.
type Team struct {
	ID                  string           `gorm:"primaryKey" json:"id"`
	Name                string           `gorm:"not null" json:"name"`
	OwnerEmail          string           `gorm:"not null;<-:create" json:"ownerEmail"`
	Announcement        string           `json:"announcement"`
	ProfilePictureUrl   string           `json:"profilePictureUrl,omitempty"`
	MemberEmails        types.StringList `gorm:"type:jsonb" json:"memberEmails"`
	PendingMemberEmails types.StringList `gorm:"type:jsonb" json:"pendingMemberEmails"`
	Meetings            types.Meetings   `gorm:"type:jsonb" json:"meetings"`
	Version             int              `gorm:"not null" json:"-"`

	// Member profiles, filled in when a single team is read.
	Members        []User `gorm:"-" json:"members,omitempty"`
	PendingMembers []User `gorm:"-" json:"pendingMembers,omitempty"`

	types.Timestamps
}

func (t *Team) IsOwner(email string) bool {
	return email != "" && t.OwnerEmail == email
}

func (t *Team) IsMember(email string) bool {
	return email != "" && t.MemberEmails.Contains(email)
}

func (t *Team) IsPending(email string) bool {
	return email != "" && t.PendingMemberEmails.Contains(email)
}

// Normalize replaces nil collections so the team always serializes with
// empty lists.
func (t *Team) Normalize() {
	if t.MemberEmails == nil {
		t.MemberEmails = types.StringList{}
	}
	if t.PendingMemberEmails == nil {
		t.PendingMemberEmails = types.StringList{}
	}
	if t.Meetings == nil {
		t.Meetings = types.Meetings{}
	}
}

func (t *Team) Clone() *Team {
	c := *t
	c.MemberEmails = append(types.StringList{}, t.MemberEmails...)
	c.PendingMemberEmails = append(types.StringList{}, t.PendingMemberEmails...)
	c.Members = append([]User(nil), t.Members...)
	c.PendingMembers = append([]User(nil), t.PendingMembers...)
	c.Meetings = make(types.Meetings, 0, len(t.Meetings))
	for _, m := range t.Meetings {
		m.WeekdayTime = append([]string{}, m.WeekdayTime...)
		c.Meetings = append(c.Meetings, m)
	}
	return &c
}
