package controllers

import (
	"context"
	"errors"
	"log"

	"standup/src/common"
	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
	"standup/src/utils"

	"github.com/google/uuid"
)

type TeamController struct {
	store    store.Store
	pictures Pictures
	notifier Notifier
	newID    func() string
}

func NewTeamController(s store.Store, pictures Pictures, notifier Notifier) *TeamController {
	return &TeamController{
		store:    s,
		pictures: picturesOrNoop(pictures),
		notifier: notifierOrNoop(notifier),
		newID:    uuid.NewString,
	}
}

func (c *TeamController) present(ctx context.Context, team *models.Team) *models.Team {
	out := team.Clone()
	out.ProfilePictureUrl = signedURL(ctx, c.pictures, team.ProfilePictureUrl)
	return out
}

func loadTeam(ctx context.Context, s store.Store, id string) (*models.Team, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, storeError(err, "team", id)
	}
	return team, nil
}

func membership(ctx context.Context, s store.Store, email string) (*models.UserInTeam, error) {
	uit, err := s.GetUserInTeam(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return uit, err
}

// mutate loads the team, applies fn and writes the team back, all inside one
// transaction. The write is conditional on the version that was read.
func (c *TeamController) mutate(ctx context.Context, id string, fn func(tx store.Store, team *models.Team) error) (*models.Team, error) {
	var result *models.Team
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		team, err := loadTeam(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, team); err != nil {
			return err
		}
		if err := tx.UpdateTeam(ctx, team); err != nil {
			return storeError(err, "team", id)
		}
		result = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *TeamController) Get(ctx context.Context, requester, id string) (*models.Team, error) {
	team, err := loadTeam(ctx, c.store, id)
	if err != nil {
		return nil, err
	}
	if err := common.RequireMember(team, requester); err != nil {
		return nil, err
	}
	out := c.present(ctx, team)
	emails := append(append([]string{}, team.MemberEmails...), team.PendingMemberEmails...)
	users, err := c.store.BatchGetUsers(ctx, emails)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]models.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = *presentUser(ctx, c.pictures, u)
	}
	out.Members = profiles(team.MemberEmails, byEmail)
	out.PendingMembers = profiles(team.PendingMemberEmails, byEmail)
	return out, nil
}

// profiles picks the users for emails in order. Emails without a user are
// skipped.
func profiles(emails []string, byEmail map[string]models.User) []models.User {
	out := make([]models.User, 0, len(emails))
	for _, email := range emails {
		if u, ok := byEmail[email]; ok {
			out = append(out, u)
		}
	}
	return out
}

// ListForRequester returns the team the requester is a confirmed member of,
// if any.
func (c *TeamController) ListForRequester(ctx context.Context, requester string) ([]models.Team, error) {
	teams := []models.Team{}
	if requester == "" {
		return teams, nil
	}
	uit, err := membership(ctx, c.store, requester)
	if err != nil {
		return nil, err
	}
	if uit == nil || uit.Pending {
		return teams, nil
	}
	team, err := c.store.GetTeam(ctx, uit.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		return teams, nil
	}
	if err != nil {
		return nil, err
	}
	if team.IsMember(requester) {
		teams = append(teams, *c.present(ctx, team))
	}
	return teams, nil
}

func (c *TeamController) Create(ctx context.Context, requester string, body types.CreateTeamRequestBody) (*models.Team, error) {
	if requester == "" {
		return nil, types.NewAuthorizationError("an authenticated requester is required to create a team")
	}
	if body.OwnerEmail != "" && body.OwnerEmail != requester {
		return nil, types.NewAuthorizationError("a team can only be created with the requester as owner")
	}

	id := c.newID()
	team := &models.Team{
		ID:                id,
		Name:              body.Name,
		OwnerEmail:        requester,
		MemberEmails:      types.StringList{requester},
		ProfilePictureUrl: utils.PictureKey(types.PictureTeam, id),
	}
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		uit, err := membership(ctx, tx, requester)
		if err != nil {
			return err
		}
		if uit != nil {
			return types.NewConflictError("%s already belongs to or applied to team %s", requester, uit.TeamID)
		}
		if err := tx.CreateTeam(ctx, team); err != nil {
			return storeError(err, "team", id)
		}
		if err := tx.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: requester, TeamID: id}); err != nil {
			return storeError(err, "membership for", requester)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.pictures.SetDefault(ctx, types.PictureTeam, team.ProfilePictureUrl); err != nil {
		log.Printf("Error setting default picture for team %s: %s\n", id, err.Error())
	}
	return c.present(ctx, team), nil
}

func (c *TeamController) Update(ctx context.Context, requester, id string, body types.UpdateTeamRequestBody) (*models.Team, error) {
	var picture []byte
	if body.ProfilePicture != nil {
		decoded, err := utils.DecodePicture(*body.ProfilePicture)
		if err != nil {
			return nil, err
		}
		picture = decoded
	}
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwner(team, requester, "update the team"); err != nil {
			return err
		}
		if body.OwnerEmail != nil && *body.OwnerEmail != team.OwnerEmail {
			return types.NewAuthorizationError("team ownership cannot be transferred")
		}
		if picture != nil {
			if team.ProfilePictureUrl == "" {
				team.ProfilePictureUrl = utils.PictureKey(types.PictureTeam, team.ID)
			}
		}
		if body.Name != nil {
			team.Name = *body.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	upload(ctx, c.pictures, team.ProfilePictureUrl, picture)
	return c.present(ctx, team), nil
}

func (c *TeamController) AddMember(ctx context.Context, requester, id, email string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := userExists(ctx, tx, email); err != nil {
			return err
		}
		if err := common.RequireOwner(team, requester, "add members"); err != nil {
			return err
		}
		if team.IsMember(email) {
			return types.NewConflictError("%s is already a member of team %s", email, team.ID)
		}
		uit, err := membership(ctx, tx, email)
		if err != nil {
			return err
		}
		if uit != nil && uit.TeamID != team.ID {
			return types.NewConflictError("%s already belongs to or applied to another team", email)
		}

		team.PendingMemberEmails = team.PendingMemberEmails.Without(email)
		team.MemberEmails = append(team.MemberEmails, email)
		if uit == nil {
			return storeError(tx.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: email, TeamID: team.ID}), "membership for", email)
		}
		uit.Pending = false
		return storeError(tx.UpdateUserInTeam(ctx, uit), "membership for", email)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventMemberAdded, team.ID, email, requester)
	return c.present(ctx, team), nil
}

func (c *TeamController) RemoveMember(ctx context.Context, requester, id, email string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwnerOrSelf(team, requester, email); err != nil {
			return err
		}
		if team.IsOwner(email) {
			return types.NewConflictError("the owner cannot be removed from team %s", team.ID)
		}
		if !team.IsMember(email) {
			return types.NewConflictError("%s is not a member of team %s", email, team.ID)
		}
		team.MemberEmails = team.MemberEmails.Without(email)
		return dropMembership(ctx, tx, team.ID, email)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventMemberRemoved, team.ID, email, requester)
	return c.present(ctx, team), nil
}

// Apply adds the requester to the team's pending list.
func (c *TeamController) Apply(ctx context.Context, requester, id, email string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := userExists(ctx, tx, email); err != nil {
			return err
		}
		if !common.IsSelf(requester, email) {
			return types.NewAuthorizationError("users can only apply on their own behalf")
		}
		if team.IsMember(email) {
			return types.NewConflictError("%s is already a member of team %s", email, team.ID)
		}
		if team.IsPending(email) {
			return types.NewConflictError("%s has already applied to team %s", email, team.ID)
		}
		uit, err := membership(ctx, tx, email)
		if err != nil {
			return err
		}
		if uit != nil {
			return types.NewConflictError("%s already belongs to or applied to team %s", email, uit.TeamID)
		}
		team.PendingMemberEmails = append(team.PendingMemberEmails, email)
		return storeError(tx.CreateUserInTeam(ctx, &models.UserInTeam{UserEmail: email, TeamID: team.ID, Pending: true}), "membership for", email)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventMemberApplied, team.ID, email, requester)
	return c.present(ctx, team), nil
}

func (c *TeamController) RemovePending(ctx context.Context, requester, id, email string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwnerOrSelf(team, requester, email); err != nil {
			return err
		}
		if !team.IsPending(email) {
			return types.NewConflictError("%s has no pending application to team %s", email, team.ID)
		}
		team.PendingMemberEmails = team.PendingMemberEmails.Without(email)
		return dropMembership(ctx, tx, team.ID, email)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventPendingRemoved, team.ID, email, requester)
	return c.present(ctx, team), nil
}

// dropMembership deletes the index record of email for teamID. A record that
// is already gone or points elsewhere is left for reconciliation to explain.
func dropMembership(ctx context.Context, tx store.Store, teamID, email string) error {
	n, err := tx.DeleteTeamMemberships(ctx, teamID, []string{email})
	if err != nil {
		return err
	}
	if n == 0 {
		log.Printf("Membership record for %s in team %s was already missing\n", email, teamID)
	}
	return nil
}

func (c *TeamController) UpdateAnnouncement(ctx context.Context, requester, id, announcement string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwner(team, requester, "post announcements"); err != nil {
			return err
		}
		team.Announcement = announcement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.present(ctx, team), nil
}

func (c *TeamController) AddMeeting(ctx context.Context, requester, id string, body types.CreateMeetingRequestBody) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwner(team, requester, "schedule meetings"); err != nil {
			return err
		}
		if team.Meetings.Index(body.Name) >= 0 {
			return types.NewConflictError("meeting %s already exists in team %s", body.Name, team.ID)
		}
		team.Meetings = append(team.Meetings, types.Meeting{
			Name:        body.Name,
			Description: body.Description,
			WeekdayTime: append([]string{}, body.WeekdayTime...),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.present(ctx, team), nil
}

func (c *TeamController) RemoveMeeting(ctx context.Context, requester, id, name string) (*models.Team, error) {
	team, err := c.mutate(ctx, id, func(tx store.Store, team *models.Team) error {
		if err := common.RequireOwner(team, requester, "remove meetings"); err != nil {
			return err
		}
		i := team.Meetings.Index(name)
		if i < 0 {
			return types.NewNotFoundError("meeting", name)
		}
		team.Meetings = append(team.Meetings[:i:i], team.Meetings[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.present(ctx, team), nil
}

// Delete removes the team together with the membership records of its
// members and applicants.
func (c *TeamController) Delete(ctx context.Context, requester, id string) (*models.Team, error) {
	var deleted *models.Team
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		team, err := loadTeam(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := common.RequireOwner(team, requester, "delete the team"); err != nil {
			return err
		}
		members, err := tx.DeleteTeamMemberships(ctx, id, team.MemberEmails)
		if err != nil {
			return err
		}
		pending, err := tx.DeleteTeamMemberships(ctx, id, team.PendingMemberEmails)
		if err != nil {
			return err
		}
		if err := tx.DeleteTeam(ctx, id); err != nil {
			return storeError(err, "team", id)
		}
		log.Printf("Deleted team %s with %d membership records\n", id, members+pending)
		deleted = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventTeamDeleted, id, "", requester)
	return c.present(ctx, deleted), nil
}
