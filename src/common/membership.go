package common

import (
	"context"
	"errors"

	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

func getMembership(ctx context.Context, s store.Store, email string) (*models.UserInTeam, error) {
	if email == "" {
		return nil, nil
	}
	uit, err := s.GetUserInTeam(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return uit, nil
}

// CheckTwoUsersInSameTeam reports whether emailA may view emailB's profile
// and status. A user may always view themself. Otherwise both users must be
// confirmed members of the same team; pending applications do not count.
func CheckTwoUsersInSameTeam(ctx context.Context, s store.Store, emailA, emailB string) (bool, error) {
	if emailA != "" && emailA == emailB {
		return true, nil
	}
	a, err := getMembership(ctx, s, emailA)
	if err != nil {
		return false, err
	}
	b, err := getMembership(ctx, s, emailB)
	if err != nil {
		return false, err
	}
	if a == nil || b == nil || a.Pending || b.Pending {
		return false, nil
	}
	return a.TeamID == b.TeamID, nil
}

func IsSelf(requester, target string) bool {
	return requester != "" && requester == target
}

func RequireOwner(team *models.Team, requester, action string) error {
	if !team.IsOwner(requester) {
		return types.NewAuthorizationError("only the team owner can %s", action)
	}
	return nil
}

func RequireMember(team *models.Team, requester string) error {
	if !team.IsMember(requester) {
		return types.NewAuthorizationError("requester is not a member of team %s", team.ID)
	}
	return nil
}

// RequireOwnerOrSelf allows the team owner to act on anyone and any other
// requester to act only on themself.
func RequireOwnerOrSelf(team *models.Team, requester, target string) error {
	if team.IsOwner(requester) || IsSelf(requester, target) {
		return nil
	}
	return types.NewAuthorizationError("requester can only act on their own membership")
}
