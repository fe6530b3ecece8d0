package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standup/src/models"
	"standup/src/types"
)

func TestMemoryStoreTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		require.NoError(t, tx.CreateUser(ctx, &models.User{Email: "a@x.com", DisplayName: "a"}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = s.GetUser(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.CreateUser(ctx, &models.User{Email: "a@x.com", DisplayName: "a"}); err != nil {
			return err
		}
		return tx.CreateUserStatus(ctx, models.NewDefaultUserStatus("a@x.com"))
	})

	require.NoError(t, err)
	_, err = s.GetUser(ctx, "a@x.com")
	assert.NoError(t, err)
	status, err := s.GetUserStatus(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)
}

func TestMemoryStoreUpdateTeamChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateTeam(ctx, &models.Team{ID: "t1", Name: "core", OwnerEmail: "a@x.com", MemberEmails: types.StringList{"a@x.com"}}))

	first, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)
	second, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)

	first.Announcement = "first"
	require.NoError(t, s.UpdateTeam(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Announcement = "second"
	assert.ErrorIs(t, s.UpdateTeam(ctx, second), ErrStaleWrite)

	stored, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Announcement)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateTeam(ctx, &models.Team{ID: "t1", Name: "core", OwnerEmail: "a@x.com", MemberEmails: types.StringList{"a@x.com"}}))

	team, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)
	team.MemberEmails = append(team.MemberEmails, "b@x.com")

	stored, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"a@x.com"}, stored.MemberEmails)
}

func TestMemoryStoreMeetingRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateMeetingRecord(ctx, &models.MeetingRecord{TeamID: "t1", DateTime: "2024-03-02T09:00:00Z"}))
	require.NoError(t, s.CreateMeetingRecord(ctx, &models.MeetingRecord{TeamID: "t1", DateTime: "2024-03-01T09:00:00Z"}))
	err := s.CreateMeetingRecord(ctx, &models.MeetingRecord{TeamID: "t1", DateTime: "2024-03-01T09:00:00Z"})
	assert.ErrorIs(t, err, ErrDuplicate)

	records, err := s.ListMeetingRecords(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-01T09:00:00Z", records[0].DateTime)

	records, err = s.ListMeetingRecords(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreBatchDeleteUserInTeams(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: "a@x.com", TeamID: "t1"}))
	require.NoError(t, s.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: "b@x.com", TeamID: "t1", Pending: true}))

	n, err := s.BatchDeleteUserInTeams(ctx, []string{"a@x.com", "b@x.com", "c@x.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	list, err := s.ListUserInTeams(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStoreDeleteTeamMembershipsKeepsOtherTeams(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: "a@x.com", TeamID: "t1"}))
	require.NoError(t, s.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: "b@x.com", TeamID: "t2"}))

	n, err := s.DeleteTeamMemberships(ctx, "t1", []string{"a@x.com", "b@x.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	b, err := s.GetUserInTeam(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "t2", b.TeamID)
}

func TestMemoryStoreBatchGetUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@x.com", DisplayName: "Ay"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "b@x.com", DisplayName: "Bee"}))

	users, err := s.BatchGetUsers(ctx, []string{"b@x.com", "ghost@x.com", "a@x.com"})

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@x.com", users[0].Email)
	assert.Equal(t, "a@x.com", users[1].Email)
}
