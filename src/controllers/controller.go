package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

// Pictures is the object storage behind profile pictures.
type Pictures interface {
	SignedURL(ctx context.Context, key string) (string, error)
	SetDefault(ctx context.Context, kind types.PictureKind, key string) error
	Upload(ctx context.Context, key string, body []byte) error
}

// Notifier publishes team events once a change has committed.
type Notifier interface {
	Publish(ctx context.Context, event types.TeamEvent) error
}

type noopPictures struct{}

func (noopPictures) SignedURL(ctx context.Context, key string) (string, error) { return "", nil }
func (noopPictures) SetDefault(ctx context.Context, kind types.PictureKind, key string) error {
	return nil
}
func (noopPictures) Upload(ctx context.Context, key string, body []byte) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Publish(ctx context.Context, event types.TeamEvent) error { return nil }

func picturesOrNoop(p Pictures) Pictures {
	if p == nil {
		return noopPictures{}
	}
	return p
}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// signedURL turns a stored object key into a presigned URL. A signing
// failure leaves the field empty rather than failing the read.
func signedURL(ctx context.Context, pictures Pictures, key string) string {
	if key == "" {
		return ""
	}
	url, err := pictures.SignedURL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}

func presentUser(ctx context.Context, pictures Pictures, user models.User) *models.User {
	user.ProfilePictureUrl = signedURL(ctx, pictures, user.ProfilePictureUrl)
	return &user
}

// upload stores a picture after its owner's row has committed. A failure only
// leaves the previous picture in place.
func upload(ctx context.Context, pictures Pictures, key string, body []byte) {
	if body == nil {
		return
	}
	if err := pictures.Upload(ctx, key, body); err != nil {
		log.Printf("Error uploading picture %s: %s\n", key, err.Error())
	}
}

func publish(ctx context.Context, notifier Notifier, eventType types.TeamEventType, teamID, email, actor string) {
	event := types.TeamEvent{
		Type:   eventType,
		TeamID: teamID,
		Email:  email,
		Actor:  actor,
		At:     time.Now().UTC(),
	}
	if err := notifier.Publish(ctx, event); err != nil {
		log.Printf("Error publishing %s for team %s: %s\n", eventType, teamID, err.Error())
	}
}

// storeError converts store sentinels into domain errors.
func storeError(err error, resource, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return types.NewNotFoundError(resource, key)
	case errors.Is(err, store.ErrDuplicate):
		return types.NewConflictError("%s %s already exists", resource, key)
	case errors.Is(err, store.ErrStaleWrite):
		return types.NewConflictError("%s %s was modified concurrently, retry the request", resource, key)
	}
	return err
}

// userExists reports a missing user as a 400, for operations where the user
// is named in the request body rather than the path.
func userExists(ctx context.Context, s store.Store, email string) error {
	_, err := s.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return types.NewValidationError("email", "user "+email+" does not exist")
	}
	return err
}
