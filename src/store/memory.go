package store

import (
	"context"
	"sort"
	"sync"

	"standup/src/models"
)

type memoryData struct {
	users       map[string]models.User
	statuses    map[string]models.UserStatus
	teams       map[string]*models.Team
	memberships map[string]models.UserInTeam
	records     map[string][]models.MeetingRecord
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:       make(map[string]models.User),
		statuses:    make(map[string]models.UserStatus),
		teams:       make(map[string]*models.Team),
		memberships: make(map[string]models.UserInTeam),
		records:     make(map[string][]models.MeetingRecord),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.statuses {
		c.statuses[k] = v
	}
	for k, v := range d.teams {
		c.teams[k] = v.Clone()
	}
	for k, v := range d.memberships {
		c.memberships[k] = v
	}
	for k, v := range d.records {
		c.records[k] = append([]models.MeetingRecord{}, v...)
	}
	return c
}

// MemoryStore keeps everything in process. Transactions hold the store lock
// and restore a snapshot when fn fails.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, data: newMemoryData()}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	user, ok := s.data.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[user.Email]; ok {
		return ErrDuplicate
	}
	s.data.users[user.Email] = *user
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[user.Email]; !ok {
		return ErrNotFound
	}
	s.data.users[user.Email] = *user
	return nil
}

func (s *MemoryStore) BatchGetUsers(ctx context.Context, emails []string) ([]models.User, error) {
	defer s.lock()()
	found := make([]models.User, 0, len(emails))
	for _, email := range emails {
		if user, ok := s.data.users[email]; ok {
			found = append(found, user)
		}
	}
	return inRequestOrder(emails, found, userEmail), nil
}

func (s *MemoryStore) GetUserStatus(ctx context.Context, email string) (*models.UserStatus, error) {
	defer s.lock()()
	status, ok := s.data.statuses[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &status, nil
}

func (s *MemoryStore) CreateUserStatus(ctx context.Context, status *models.UserStatus) error {
	defer s.lock()()
	if _, ok := s.data.statuses[status.Email]; ok {
		return ErrDuplicate
	}
	s.data.statuses[status.Email] = *status
	return nil
}

func (s *MemoryStore) UpdateUserStatus(ctx context.Context, status *models.UserStatus) error {
	defer s.lock()()
	if _, ok := s.data.statuses[status.Email]; !ok {
		return ErrNotFound
	}
	s.data.statuses[status.Email] = *status
	return nil
}

func (s *MemoryStore) BatchGetUserStatuses(ctx context.Context, emails []string) ([]models.UserStatus, error) {
	defer s.lock()()
	found := make([]models.UserStatus, 0, len(emails))
	for _, email := range emails {
		if status, ok := s.data.statuses[email]; ok {
			found = append(found, status)
		}
	}
	return inRequestOrder(emails, found, statusEmail), nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	defer s.lock()()
	team, ok := s.data.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return team.Clone(), nil
}

func (s *MemoryStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	defer s.lock()()
	teams := make([]models.Team, 0, len(s.data.teams))
	for _, team := range s.data.teams {
		teams = append(teams, *team.Clone())
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (s *MemoryStore) CreateTeam(ctx context.Context, team *models.Team) error {
	defer s.lock()()
	if _, ok := s.data.teams[team.ID]; ok {
		return ErrDuplicate
	}
	team.Normalize()
	team.Version = 1
	s.data.teams[team.ID] = team.Clone()
	return nil
}

func (s *MemoryStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	defer s.lock()()
	current, ok := s.data.teams[team.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != team.Version {
		return ErrStaleWrite
	}
	team.Normalize()
	team.Version++
	stored := team.Clone()
	stored.OwnerEmail = current.OwnerEmail
	s.data.teams[team.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteTeam(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.teams[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.teams, id)
	return nil
}

func (s *MemoryStore) GetUserInTeam(ctx context.Context, email string) (*models.UserInTeam, error) {
	defer s.lock()()
	uit, ok := s.data.memberships[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &uit, nil
}

func (s *MemoryStore) ListUserInTeams(ctx context.Context) ([]models.UserInTeam, error) {
	defer s.lock()()
	list := make([]models.UserInTeam, 0, len(s.data.memberships))
	for _, uit := range s.data.memberships {
		list = append(list, uit)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserEmail < list[j].UserEmail })
	return list, nil
}

func (s *MemoryStore) CreateUserInTeam(ctx context.Context, uit *models.UserInTeam) error {
	defer s.lock()()
	if _, ok := s.data.memberships[uit.UserEmail]; ok {
		return ErrDuplicate
	}
	s.data.memberships[uit.UserEmail] = *uit
	return nil
}

func (s *MemoryStore) UpdateUserInTeam(ctx context.Context, uit *models.UserInTeam) error {
	defer s.lock()()
	if _, ok := s.data.memberships[uit.UserEmail]; !ok {
		return ErrNotFound
	}
	s.data.memberships[uit.UserEmail] = *uit
	return nil
}

func (s *MemoryStore) BatchDeleteUserInTeams(ctx context.Context, emails []string) (int64, error) {
	defer s.lock()()
	var deleted int64
	for _, email := range emails {
		if _, ok := s.data.memberships[email]; ok {
			delete(s.data.memberships, email)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) DeleteTeamMemberships(ctx context.Context, teamID string, emails []string) (int64, error) {
	defer s.lock()()
	var deleted int64
	for _, email := range emails {
		if uit, ok := s.data.memberships[email]; ok && uit.TeamID == teamID {
			delete(s.data.memberships, email)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) CreateMeetingRecord(ctx context.Context, record *models.MeetingRecord) error {
	defer s.lock()()
	records := s.data.records[record.TeamID]
	for _, r := range records {
		if r.DateTime == record.DateTime {
			return ErrDuplicate
		}
	}
	stored := *record
	stored.Presentations = append(stored.Presentations[:0:0], record.Presentations...)
	records = append(records, stored)
	sort.SliceStable(records, func(i, j int) bool { return records[i].DateTime < records[j].DateTime })
	s.data.records[record.TeamID] = records
	return nil
}

func (s *MemoryStore) ListMeetingRecords(ctx context.Context, teamID string) ([]models.MeetingRecord, error) {
	defer s.lock()()
	return append([]models.MeetingRecord{}, s.data.records[teamID]...), nil
}
