package aws

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"standup/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ProfilePictures stores user and team pictures in one bucket. Records keep
// the object key; clients receive a presigned URL.
type ProfilePictures struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	defaults map[types.PictureKind]string
	ttl      time.Duration
}

func NewProfilePictures(cfg aws.Config, bucket, defaultUserKey, defaultTeamKey string, ttl time.Duration) *ProfilePictures {
	client := s3.NewFromConfig(cfg)
	return &ProfilePictures{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		defaults: map[types.PictureKind]string{
			types.PictureUser: defaultUserKey,
			types.PictureTeam: defaultTeamKey,
		},
		ttl: ttl,
	}
}

func (p *ProfilePictures) SignedURL(ctx context.Context, key string) (string, error) {
	r, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = p.ttl
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return "", err
	}
	return r.URL, nil
}

// SetDefault copies the default picture for kind to key.
func (p *ProfilePictures) SetDefault(ctx context.Context, kind types.PictureKind, key string) error {
	source, ok := p.defaults[kind]
	if !ok || source == "" {
		return fmt.Errorf("no default picture for %s", kind)
	}
	_, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(key),
		CopySource: aws.String(fmt.Sprintf("%s/%s", p.bucket, source)),
	})
	if err != nil {
		log.Printf("Could not copy default picture to %s: %s\n", key, err.Error())
		return err
	}
	return nil
}

func (p *ProfilePictures) Upload(ctx context.Context, key string, body []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(http.DetectContentType(body)),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return err
	}
	err = s3.NewObjectExistsWaiter(p.client).Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for object %s to exist: %s\n", key, err.Error())
		return err
	}
	log.Printf("Added object '%s' to bucket '%s'", key, p.bucket)
	return nil
}
