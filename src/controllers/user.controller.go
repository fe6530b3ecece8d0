package controllers

import (
	"context"
	"log"

	"standup/src/common"
	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
	"standup/src/utils"
)

type UserController struct {
	store    store.Store
	pictures Pictures
}

func NewUserController(s store.Store, pictures Pictures) *UserController {
	return &UserController{store: s, pictures: picturesOrNoop(pictures)}
}

func (c *UserController) present(ctx context.Context, user *models.User) *models.User {
	return presentUser(ctx, c.pictures, *user)
}

// Register creates the user and their initial status together.
func (c *UserController) Register(ctx context.Context, body types.RegisterUserRequestBody) (*models.User, error) {
	user := &models.User{
		Email:             body.Email,
		DisplayName:       body.DisplayName,
		FirstName:         body.FirstName,
		LastName:          body.LastName,
		ProfilePictureUrl: utils.PictureKey(types.PictureUser, body.Email),
	}
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return storeError(err, "user", body.Email)
		}
		if err := tx.CreateUserStatus(ctx, models.NewDefaultUserStatus(body.Email)); err != nil {
			return storeError(err, "status for user", body.Email)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.pictures.SetDefault(ctx, types.PictureUser, user.ProfilePictureUrl); err != nil {
		log.Printf("Error setting default picture for user %s: %s\n", body.Email, err.Error())
	}
	return c.present(ctx, user), nil
}

func (c *UserController) Get(ctx context.Context, requester, email string) (*models.User, error) {
	user, err := c.store.GetUser(ctx, email)
	if err != nil {
		return nil, storeError(err, "user", email)
	}
	ok, err := common.CheckTwoUsersInSameTeam(ctx, c.store, requester, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewAuthorizationError("requester does not share a team with %s", email)
	}
	return c.present(ctx, user), nil
}

func (c *UserController) Update(ctx context.Context, requester, email string, body types.UpdateUserRequestBody) (*models.User, error) {
	var picture []byte
	if body.ProfilePicture != nil {
		decoded, err := utils.DecodePicture(*body.ProfilePicture)
		if err != nil {
			return nil, err
		}
		picture = decoded
	}
	if !common.IsSelf(requester, email) {
		return nil, types.NewAuthorizationError("users can only update their own profile")
	}

	var user *models.User
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		current, err := tx.GetUser(ctx, email)
		if err != nil {
			return storeError(err, "user", email)
		}
		current.DisplayName = body.DisplayName
		if body.FirstName != nil {
			current.FirstName = *body.FirstName
		}
		if body.LastName != nil {
			current.LastName = *body.LastName
		}
		if picture != nil && current.ProfilePictureUrl == "" {
			current.ProfilePictureUrl = utils.PictureKey(types.PictureUser, email)
		}
		if err := tx.UpdateUser(ctx, current); err != nil {
			return storeError(err, "user", email)
		}
		user = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	upload(ctx, c.pictures, user.ProfilePictureUrl, picture)
	return c.present(ctx, user), nil
}
