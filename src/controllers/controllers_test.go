package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

type fakePictures struct {
	mu         sync.Mutex
	defaults   map[string]types.PictureKind
	uploads    map[string][]byte
	failCopy   bool
	failUpload bool
}

func newFakePictures() *fakePictures {
	return &fakePictures{defaults: map[string]types.PictureKind{}, uploads: map[string][]byte{}}
}

func (p *fakePictures) SignedURL(ctx context.Context, key string) (string, error) {
	return "https://assets.test/" + key + "?signed", nil
}

func (p *fakePictures) SetDefault(ctx context.Context, kind types.PictureKind, key string) error {
	if p.failCopy {
		return errors.New("copy failed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[key] = kind
	return nil
}

func (p *fakePictures) Upload(ctx context.Context, key string, body []byte) error {
	if p.failUpload {
		return errors.New("upload failed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads[key] = body
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []types.TeamEvent
	err    error
}

func (n *fakeNotifier) Publish(ctx context.Context, event types.TeamEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *fakeNotifier) eventTypes() []types.TeamEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]types.TeamEventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *store.MemoryStore
	pictures *fakePictures
	notifier *fakeNotifier
	teams    *TeamController
	users    *UserController
	statuses *UserStatusController
	records  *MeetingRecordController
}

func newFixture(t *testing.T, emails ...string) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    store.NewMemoryStore(),
		pictures: newFakePictures(),
		notifier: &fakeNotifier{},
	}
	f.teams = NewTeamController(f.store, f.pictures, f.notifier)
	f.users = NewUserController(f.store, f.pictures)
	f.statuses = NewUserStatusController(f.store)
	f.records = NewMeetingRecordController(f.store, f.notifier)
	for _, email := range emails {
		_, err := f.users.Register(f.ctx, types.RegisterUserRequestBody{Email: email, DisplayName: email})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) createTeam(t *testing.T, owner, id string) *models.Team {
	t.Helper()
	f.teams.newID = func() string { return id }
	team, err := f.teams.Create(f.ctx, owner, types.CreateTeamRequestBody{Name: "team " + id})
	require.NoError(t, err)
	return team
}

func (f *fixture) membership(t *testing.T, email string) *models.UserInTeam {
	t.Helper()
	uit, err := f.store.GetUserInTeam(f.ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	require.NoError(t, err)
	return uit
}

// assertTeamInvariants checks the aggregate and its index agree.
func (f *fixture) assertTeamInvariants(t *testing.T, id string) {
	t.Helper()
	team, err := f.store.GetTeam(f.ctx, id)
	require.NoError(t, err)
	assert.Contains(t, team.MemberEmails, team.OwnerEmail)
	for _, m := range team.MemberEmails {
		assert.NotContains(t, team.PendingMemberEmails, m)
		uit := f.membership(t, m)
		if assert.NotNil(t, uit, m) {
			assert.Equal(t, id, uit.TeamID)
			assert.False(t, uit.Pending)
		}
	}
	for _, p := range team.PendingMemberEmails {
		uit := f.membership(t, p)
		if assert.NotNil(t, uit, p) {
			assert.Equal(t, id, uit.TeamID)
			assert.True(t, uit.Pending)
		}
	}
	seen := map[string]bool{}
	for _, m := range team.Meetings {
		assert.False(t, seen[m.Name], "duplicate meeting %s", m.Name)
		seen[m.Name] = true
	}
}

func assertStatus(t *testing.T, want int, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, types.StatusCode(err), err.Error())
}
