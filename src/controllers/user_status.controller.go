package controllers

import (
	"context"

	"standup/src/common"
	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

type UserStatusController struct {
	store store.Store
}

func NewUserStatusController(s store.Store) *UserStatusController {
	return &UserStatusController{store: s}
}

func (c *UserStatusController) Get(ctx context.Context, requester, email string) (*models.UserStatus, error) {
	status, err := c.store.GetUserStatus(ctx, email)
	if err != nil {
		return nil, storeError(err, "status for user", email)
	}
	ok, err := common.CheckTwoUsersInSameTeam(ctx, c.store, requester, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewAuthorizationError("requester does not share a team with %s", email)
	}
	return status, nil
}

func (c *UserStatusController) Update(ctx context.Context, requester, email string, body types.UpdateUserStatusRequestBody) (*models.UserStatus, error) {
	if !common.IsSelf(requester, email) {
		return nil, types.NewAuthorizationError("users can only update their own status")
	}
	var status *models.UserStatus
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		current, err := tx.GetUserStatus(ctx, email)
		if err != nil {
			return storeError(err, "status for user", email)
		}
		current.IsBlocked = *body.IsBlocked
		current.Presentation = types.Presentation{
			PrevWork:  body.Presentation.PrevWork,
			PlanToday: body.Presentation.PlanToday,
			BlockedBy: body.Presentation.BlockedBy,
		}
		if err := tx.UpdateUserStatus(ctx, current); err != nil {
			return storeError(err, "status for user", email)
		}
		status = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}
