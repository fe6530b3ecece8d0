package store

import (
	"context"
	"errors"

	"standup/src/models"
	"standup/src/models/scopes"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Scopes(scopes.WithEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(scopes.WithEmail(user.Email)).
		Updates(map[string]any{
			"display_name":        user.DisplayName,
			"first_name":          user.FirstName,
			"last_name":           user.LastName,
			"profile_picture_url": user.ProfilePictureUrl,
			"blocked":             user.Blocked,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) BatchGetUsers(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return []models.User{}, nil
	}
	var found []models.User
	err := s.db.WithContext(ctx).Scopes(scopes.WithEmails(emails...)).Find(&found).Error
	if err != nil {
		return nil, translate(err)
	}
	return inRequestOrder(emails, found, userEmail), nil
}

func (s *GormStore) GetUserStatus(ctx context.Context, email string) (*models.UserStatus, error) {
	var status models.UserStatus
	err := s.db.WithContext(ctx).Scopes(scopes.WithEmail(email)).First(&status).Error
	if err != nil {
		return nil, translate(err)
	}
	return &status, nil
}

func (s *GormStore) CreateUserStatus(ctx context.Context, status *models.UserStatus) error {
	return translate(s.db.WithContext(ctx).Create(status).Error)
}

func (s *GormStore) UpdateUserStatus(ctx context.Context, status *models.UserStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.UserStatus{}).
		Scopes(scopes.WithEmail(status.Email)).
		Updates(map[string]any{
			"is_blocked":   status.IsBlocked,
			"presentation": status.Presentation,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) BatchGetUserStatuses(ctx context.Context, emails []string) ([]models.UserStatus, error) {
	if len(emails) == 0 {
		return []models.UserStatus{}, nil
	}
	var found []models.UserStatus
	err := s.db.WithContext(ctx).Scopes(scopes.WithEmails(emails...)).Find(&found).Error
	if err != nil {
		return nil, translate(err)
	}
	return inRequestOrder(emails, found, statusEmail), nil
}

func (s *GormStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&team).Error
	if err != nil {
		return nil, translate(err)
	}
	team.Normalize()
	return &team, nil
}

func (s *GormStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).Order("id asc").Find(&teams).Error
	if err != nil {
		return nil, translate(err)
	}
	for i := range teams {
		teams[i].Normalize()
	}
	return teams, nil
}

func (s *GormStore) CreateTeam(ctx context.Context, team *models.Team) error {
	team.Normalize()
	team.Version = 1
	return translate(s.db.WithContext(ctx).Create(team).Error)
}

func (s *GormStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	team.Normalize()
	res := s.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ? AND version = ?", team.ID, team.Version).
		Updates(map[string]any{
			"name":                  team.Name,
			"announcement":          team.Announcement,
			"profile_picture_url":   team.ProfilePictureUrl,
			"member_emails":         team.MemberEmails,
			"pending_member_emails": team.PendingMemberEmails,
			"meetings":              team.Meetings,
			"version":               team.Version + 1,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", team.ID).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleWrite
	}
	team.Version++
	return nil
}

func (s *GormStore) DeleteTeam(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Team{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetUserInTeam(ctx context.Context, email string) (*models.UserInTeam, error) {
	var uit models.UserInTeam
	err := s.db.WithContext(ctx).Where("user_email = ?", email).First(&uit).Error
	if err != nil {
		return nil, translate(err)
	}
	return &uit, nil
}

func (s *GormStore) ListUserInTeams(ctx context.Context) ([]models.UserInTeam, error) {
	var list []models.UserInTeam
	err := s.db.WithContext(ctx).Order("user_email asc").Find(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return list, nil
}

func (s *GormStore) CreateUserInTeam(ctx context.Context, uit *models.UserInTeam) error {
	return translate(s.db.WithContext(ctx).Create(uit).Error)
}

func (s *GormStore) UpdateUserInTeam(ctx context.Context, uit *models.UserInTeam) error {
	res := s.db.WithContext(ctx).
		Model(&models.UserInTeam{}).
		Where("user_email = ?", uit.UserEmail).
		Updates(map[string]any{
			"team_id": uit.TeamID,
			"pending": uit.Pending,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) BatchDeleteUserInTeams(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Scopes(scopes.WithUserEmails(emails...)).Delete(&models.UserInTeam{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteTeamMemberships(ctx context.Context, teamID string, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Scopes(scopes.WithTeamID(teamID), scopes.WithUserEmails(emails...)).
		Delete(&models.UserInTeam{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) CreateMeetingRecord(ctx context.Context, record *models.MeetingRecord) error {
	return translate(s.db.WithContext(ctx).Create(record).Error)
}

func (s *GormStore) ListMeetingRecords(ctx context.Context, teamID string) ([]models.MeetingRecord, error) {
	records := make([]models.MeetingRecord, 0)
	err := s.db.WithContext(ctx).
		Scopes(scopes.WithTeamID(teamID)).
		Order("date_time asc").
		Find(&records).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return records, nil
}
