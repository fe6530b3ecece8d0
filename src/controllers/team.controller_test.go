package controllers

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standup/src/models"
	"standup/src/types"
	"standup/src/utils"
)

func TestCreateTeam(t *testing.T) {
	f := newFixture(t, "a@x.com")

	team := f.createTeam(t, "a@x.com", "t1")

	assert.Equal(t, "a@x.com", team.OwnerEmail)
	assert.Equal(t, types.StringList{"a@x.com"}, team.MemberEmails)
	assert.Empty(t, team.PendingMemberEmails)
	assert.Contains(t, team.ProfilePictureUrl, "?signed")
	assert.Equal(t, types.PictureTeam, f.pictures.defaults[utils.PictureKey(types.PictureTeam, "t1")])
	f.assertTeamInvariants(t, "t1")
}

func TestCreateTeamRejections(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.teams.Create(f.ctx, "", types.CreateTeamRequestBody{Name: "x"})
		assertStatus(t, http.StatusUnauthorized, err)
	})
	t.Run("owner is someone else", func(t *testing.T) {
		_, err := f.teams.Create(f.ctx, "b@x.com", types.CreateTeamRequestBody{Name: "x", OwnerEmail: "a@x.com"})
		assertStatus(t, http.StatusUnauthorized, err)
	})
	t.Run("already affiliated", func(t *testing.T) {
		f.teams.newID = func() string { return "t2" }
		_, err := f.teams.Create(f.ctx, "a@x.com", types.CreateTeamRequestBody{Name: "x"})
		assertStatus(t, http.StatusBadRequest, err)
	})
	t.Run("id collision", func(t *testing.T) {
		f.teams.newID = func() string { return "t1" }
		_, err := f.teams.Create(f.ctx, "b@x.com", types.CreateTeamRequestBody{Name: "x"})
		assertStatus(t, http.StatusBadRequest, err)
		assert.Nil(t, f.membership(t, "b@x.com"))
	})
}

func TestCreateTeamSurvivesPictureFailure(t *testing.T) {
	f := newFixture(t, "a@x.com")
	f.pictures.failCopy = true

	team := f.createTeam(t, "a@x.com", "t1")

	assert.Equal(t, "t1", team.ID)
}

func TestGetTeamRequiresMembership(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")

	_, err := f.teams.Get(f.ctx, "a@x.com", "missing")
	assertStatus(t, http.StatusNotFound, err)

	_, err = f.teams.Get(f.ctx, "b@x.com", "t1")
	assertStatus(t, http.StatusUnauthorized, err)

	team, err := f.teams.Get(f.ctx, "a@x.com", "t1")
	require.NoError(t, err)
	assert.Equal(t, "team t1", team.Name)
}

func TestApplyAndConfirm(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")

	team, err := f.teams.Apply(f.ctx, "b@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"b@x.com"}, team.PendingMemberEmails)
	assert.True(t, f.membership(t, "b@x.com").Pending)
	f.assertTeamInvariants(t, "t1")

	team, err = f.teams.AddMember(f.ctx, "a@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"a@x.com", "b@x.com"}, team.MemberEmails)
	assert.Empty(t, team.PendingMemberEmails)
	assert.False(t, f.membership(t, "b@x.com").Pending)
	f.assertTeamInvariants(t, "t1")

	assert.Equal(t, []types.TeamEventType{types.EventMemberApplied, types.EventMemberAdded}, f.notifier.eventTypes())
}

func TestApplyRejections(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	f.createTeam(t, "c@x.com", "t2")
	_, err := f.teams.Apply(f.ctx, "b@x.com", "t1", "b@x.com")
	require.NoError(t, err)

	cases := []struct {
		name      string
		requester string
		team      string
		email     string
		want      int
	}{
		{"missing team", "b@x.com", "nope", "b@x.com", http.StatusNotFound},
		{"missing user", "ghost@x.com", "t1", "ghost@x.com", http.StatusBadRequest},
		{"on behalf of someone else", "a@x.com", "t2", "b@x.com", http.StatusUnauthorized},
		{"already a member", "a@x.com", "t1", "a@x.com", http.StatusBadRequest},
		{"already pending here", "b@x.com", "t1", "b@x.com", http.StatusBadRequest},
		{"pending elsewhere", "b@x.com", "t2", "b@x.com", http.StatusBadRequest},
		{"member elsewhere", "c@x.com", "t1", "c@x.com", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.teams.Apply(f.ctx, tc.requester, tc.team, tc.email)
			assertStatus(t, tc.want, err)
		})
	}
	f.assertTeamInvariants(t, "t1")
	f.assertTeamInvariants(t, "t2")
}

func TestAddMemberRejections(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	f.createTeam(t, "c@x.com", "t2")

	_, err := f.teams.AddMember(f.ctx, "a@x.com", "nope", "b@x.com")
	assertStatus(t, http.StatusNotFound, err)
	_, err = f.teams.AddMember(f.ctx, "a@x.com", "t1", "ghost@x.com")
	assertStatus(t, http.StatusBadRequest, err)
	_, err = f.teams.AddMember(f.ctx, "b@x.com", "t1", "b@x.com")
	assertStatus(t, http.StatusUnauthorized, err)
	_, err = f.teams.AddMember(f.ctx, "a@x.com", "t1", "a@x.com")
	assertStatus(t, http.StatusBadRequest, err)
	_, err = f.teams.AddMember(f.ctx, "a@x.com", "t1", "c@x.com")
	assertStatus(t, http.StatusBadRequest, err)

	team, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	assert.True(t, team.IsMember("b@x.com"))
	f.assertTeamInvariants(t, "t1")
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	for _, email := range []string{"b@x.com", "c@x.com"} {
		_, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", email)
		require.NoError(t, err)
	}

	_, err := f.teams.RemoveMember(f.ctx, "b@x.com", "t1", "c@x.com")
	assertStatus(t, http.StatusUnauthorized, err)
	_, err = f.teams.RemoveMember(f.ctx, "a@x.com", "t1", "a@x.com")
	assertStatus(t, http.StatusBadRequest, err)
	_, err = f.teams.RemoveMember(f.ctx, "a@x.com", "t1", "nobody@x.com")
	assertStatus(t, http.StatusBadRequest, err)

	// members may leave on their own
	team, err := f.teams.RemoveMember(f.ctx, "b@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	assert.False(t, team.IsMember("b@x.com"))
	assert.Nil(t, f.membership(t, "b@x.com"))

	team, err = f.teams.RemoveMember(f.ctx, "a@x.com", "t1", "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.StringList{"a@x.com"}, team.MemberEmails)
	f.assertTeamInvariants(t, "t1")
}

func TestRemovePending(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	for _, email := range []string{"b@x.com", "c@x.com"} {
		_, err := f.teams.Apply(f.ctx, email, "t1", email)
		require.NoError(t, err)
	}

	_, err := f.teams.RemovePending(f.ctx, "b@x.com", "t1", "c@x.com")
	assertStatus(t, http.StatusUnauthorized, err)
	_, err = f.teams.RemovePending(f.ctx, "a@x.com", "t1", "a@x.com")
	assertStatus(t, http.StatusBadRequest, err)

	_, err = f.teams.RemovePending(f.ctx, "b@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	team, err := f.teams.RemovePending(f.ctx, "a@x.com", "t1", "c@x.com")
	require.NoError(t, err)
	assert.Empty(t, team.PendingMemberEmails)
	assert.Nil(t, f.membership(t, "b@x.com"))
	assert.Nil(t, f.membership(t, "c@x.com"))
	f.assertTeamInvariants(t, "t1")
}

func TestAnnouncementAndMeetings(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")
	_, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", "b@x.com")
	require.NoError(t, err)

	_, err = f.teams.UpdateAnnouncement(f.ctx, "b@x.com", "t1", "hi")
	assertStatus(t, http.StatusUnauthorized, err)
	team, err := f.teams.UpdateAnnouncement(f.ctx, "a@x.com", "t1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", team.Announcement)

	meeting := types.CreateMeetingRequestBody{Name: "daily", WeekdayTime: []string{"Monday 09:00 - 09:15"}}
	_, err = f.teams.AddMeeting(f.ctx, "b@x.com", "t1", meeting)
	assertStatus(t, http.StatusUnauthorized, err)
	team, err = f.teams.AddMeeting(f.ctx, "a@x.com", "t1", meeting)
	require.NoError(t, err)
	require.Len(t, team.Meetings, 1)
	_, err = f.teams.AddMeeting(f.ctx, "a@x.com", "t1", meeting)
	assertStatus(t, http.StatusBadRequest, err)

	_, err = f.teams.RemoveMeeting(f.ctx, "a@x.com", "t1", "weekly")
	assertStatus(t, http.StatusNotFound, err)
	team, err = f.teams.RemoveMeeting(f.ctx, "a@x.com", "t1", "daily")
	require.NoError(t, err)
	assert.Empty(t, team.Meetings)
	f.assertTeamInvariants(t, "t1")
}

func TestUpdateTeam(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")
	name := "renamed"
	other := "b@x.com"
	picture := base64.StdEncoding.EncodeToString([]byte("png"))

	_, err := f.teams.Update(f.ctx, "b@x.com", "t1", types.UpdateTeamRequestBody{Name: &name})
	assertStatus(t, http.StatusUnauthorized, err)
	_, err = f.teams.Update(f.ctx, "a@x.com", "t1", types.UpdateTeamRequestBody{OwnerEmail: &other})
	assertStatus(t, http.StatusUnauthorized, err)

	team, err := f.teams.Update(f.ctx, "a@x.com", "t1", types.UpdateTeamRequestBody{Name: &name, ProfilePicture: &picture})
	require.NoError(t, err)
	assert.Equal(t, "renamed", team.Name)
	assert.Equal(t, []byte("png"), f.pictures.uploads[utils.PictureKey(types.PictureTeam, "t1")])

	stored, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stored.OwnerEmail)
}

func TestDeleteTeamRemovesMemberships(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	_, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	_, err = f.teams.Apply(f.ctx, "c@x.com", "t1", "c@x.com")
	require.NoError(t, err)

	_, err = f.teams.Delete(f.ctx, "b@x.com", "t1")
	assertStatus(t, http.StatusUnauthorized, err)

	team, err := f.teams.Delete(f.ctx, "a@x.com", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", team.ID)
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		assert.Nil(t, f.membership(t, email), email)
	}
	_, err = f.teams.Get(f.ctx, "a@x.com", "t1")
	assertStatus(t, http.StatusNotFound, err)
	_, err = f.teams.Delete(f.ctx, "a@x.com", "t1")
	assertStatus(t, http.StatusNotFound, err)

	// former members are free to join again
	f.createTeam(t, "b@x.com", "t2")
	_, err = f.teams.Apply(f.ctx, "c@x.com", "t2", "c@x.com")
	require.NoError(t, err)
}

func TestListForRequester(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")
	_, err := f.teams.Apply(f.ctx, "b@x.com", "t1", "b@x.com")
	require.NoError(t, err)

	teams, err := f.teams.ListForRequester(f.ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "t1", teams[0].ID)

	teams, err = f.teams.ListForRequester(f.ctx, "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, teams)

	teams, err = f.teams.ListForRequester(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestStaleTeamWriteIsConflict(t *testing.T) {
	f := newFixture(t, "a@x.com")
	f.createTeam(t, "a@x.com", "t1")

	stale, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)
	_, err = f.teams.UpdateAnnouncement(f.ctx, "a@x.com", "t1", "fresh")
	require.NoError(t, err)

	err = storeError(f.store.UpdateTeam(f.ctx, stale), "team", "t1")
	assertStatus(t, http.StatusBadRequest, err)
	var conflict *types.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFailedMutationLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")
	before, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)

	_, err = f.teams.AddMeeting(f.ctx, "a@x.com", "t1", types.CreateMeetingRequestBody{Name: "daily", WeekdayTime: []string{"Monday 09:00 - 09:15"}})
	require.NoError(t, err)
	_, err = f.teams.AddMeeting(f.ctx, "a@x.com", "t1", types.CreateMeetingRequestBody{Name: "daily", WeekdayTime: []string{"Friday 09:00 - 09:15"}})
	require.Error(t, err)

	after, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, before.Version+1, after.Version)
	assert.Equal(t, []string{"Monday 09:00 - 09:15"}, after.Meetings[0].WeekdayTime)
}

func TestUpdateTeamKeepsChangeWhenUploadFails(t *testing.T) {
	f := newFixture(t, "a@x.com")
	f.createTeam(t, "a@x.com", "t1")
	f.pictures.failUpload = true
	name := "renamed"
	picture := base64.StdEncoding.EncodeToString([]byte("png"))

	team, err := f.teams.Update(f.ctx, "a@x.com", "t1", types.UpdateTeamRequestBody{Name: &name, ProfilePicture: &picture})

	require.NoError(t, err)
	assert.Equal(t, "renamed", team.Name)
	stored, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)
}

func TestUpdateTeamValidatesPictureFirst(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com")
	f.createTeam(t, "a@x.com", "t1")
	bad := "%%%"

	_, err := f.teams.Update(f.ctx, "b@x.com", "t1", types.UpdateTeamRequestBody{ProfilePicture: &bad})

	assertStatus(t, http.StatusBadRequest, err)
}

func TestGetTeamResolvesMemberProfiles(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	_, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", "b@x.com")
	require.NoError(t, err)
	_, err = f.teams.Apply(f.ctx, "c@x.com", "t1", "c@x.com")
	require.NoError(t, err)

	team, err := f.teams.Get(f.ctx, "b@x.com", "t1")

	require.NoError(t, err)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "a@x.com", team.Members[0].Email)
	assert.Equal(t, "b@x.com", team.Members[1].Email)
	assert.Equal(t, "https://assets.test/"+utils.PictureKey(types.PictureUser, "b@x.com")+"?signed", team.Members[1].ProfilePictureUrl)
	require.Len(t, team.PendingMembers, 1)
	assert.Equal(t, "c@x.com", team.PendingMembers[0].Email)

	stored, err := f.store.GetTeam(f.ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, stored.Members)
}

func TestDeleteTeamLeavesOtherTeamsMemberships(t *testing.T) {
	f := newFixture(t, "a@x.com", "b@x.com", "c@x.com")
	f.createTeam(t, "a@x.com", "t1")
	f.createTeam(t, "b@x.com", "t2")
	// c is listed by t1 while the index already points at t2
	_, err := f.teams.AddMember(f.ctx, "a@x.com", "t1", "c@x.com")
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateUserInTeam(f.ctx, &models.UserInTeam{UserEmail: "c@x.com", TeamID: "t2"}))

	_, err = f.teams.RemoveMember(f.ctx, "a@x.com", "t1", "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "t2", f.membership(t, "c@x.com").TeamID)

	_, err = f.teams.Delete(f.ctx, "a@x.com", "t1")
	require.NoError(t, err)
	assert.Nil(t, f.membership(t, "a@x.com"))
	assert.Equal(t, "t2", f.membership(t, "b@x.com").TeamID)
	assert.Equal(t, "t2", f.membership(t, "c@x.com").TeamID)
}
