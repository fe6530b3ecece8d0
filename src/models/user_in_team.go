package models

type UserInTeam struct {
	UserEmail string `gorm:"primaryKey" json:"userEmail"`
	TeamID    string `gorm:"not null;index" json:"teamId"`
	Pending   bool   `gorm:"not null" json:"pending"`
}

func (UserInTeam) TableName() string {
	return "user_in_teams"
}
