// Package store persists users, statuses, teams, the membership index and
// meeting records. Callers depend on the Store interface; GormStore backs
// production and MemoryStore backs local runs and tests.
package store

import (
	"context"
	"errors"

	"standup/src/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrStaleWrite = errors.New("record was modified concurrently")
)

type Store interface {
	// Transaction runs fn against a store whose writes commit together or
	// not at all.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetUser(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	// BatchGetUsers returns the users that exist, in request order.
	BatchGetUsers(ctx context.Context, emails []string) ([]models.User, error)

	GetUserStatus(ctx context.Context, email string) (*models.UserStatus, error)
	CreateUserStatus(ctx context.Context, status *models.UserStatus) error
	UpdateUserStatus(ctx context.Context, status *models.UserStatus) error
	// BatchGetUserStatuses returns the statuses that exist, in request order.
	BatchGetUserStatuses(ctx context.Context, emails []string) ([]models.UserStatus, error)

	GetTeam(ctx context.Context, id string) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	// UpdateTeam writes the team only if its stored version still matches
	// team.Version, and bumps the version on success.
	UpdateTeam(ctx context.Context, team *models.Team) error
	DeleteTeam(ctx context.Context, id string) error

	GetUserInTeam(ctx context.Context, email string) (*models.UserInTeam, error)
	ListUserInTeams(ctx context.Context) ([]models.UserInTeam, error)
	CreateUserInTeam(ctx context.Context, uit *models.UserInTeam) error
	UpdateUserInTeam(ctx context.Context, uit *models.UserInTeam) error
	BatchDeleteUserInTeams(ctx context.Context, emails []string) (int64, error)
	// DeleteTeamMemberships deletes the records of emails that point at
	// teamID. Records pointing at other teams are left alone.
	DeleteTeamMemberships(ctx context.Context, teamID string, emails []string) (int64, error)

	CreateMeetingRecord(ctx context.Context, record *models.MeetingRecord) error
	// ListMeetingRecords returns a team's records ordered by dateTime.
	ListMeetingRecords(ctx context.Context, teamID string) ([]models.MeetingRecord, error)
}

// inRequestOrder arranges found to follow emails, dropping emails that were
// not found.
func inRequestOrder[T any](emails []string, found []T, email func(T) string) []T {
	byEmail := make(map[string]T, len(found))
	for _, v := range found {
		byEmail[email(v)] = v
	}
	out := make([]T, 0, len(found))
	for _, e := range emails {
		if v, ok := byEmail[e]; ok {
			out = append(out, v)
			delete(byEmail, e)
		}
	}
	return out
}

func statusEmail(s models.UserStatus) string { return s.Email }

func userEmail(u models.User) string { return u.Email }
