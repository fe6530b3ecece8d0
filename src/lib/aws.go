package lib

import (
	"context"
	"errors"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// LoadAWSConfig loads the default credential chain. When roleARN is set the
// returned config carries temporary credentials for that role.
func LoadAWSConfig(ctx context.Context, roleARN string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return aws.Config{}, err
	}
	if roleARN == "" {
		return cfg, nil
	}
	stsClient := sts.NewFromConfig(cfg)
	output, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String("standup-api"),
	})
	if err != nil {
		log.Printf("Error configuring STS client: %s\n", err.Error())
		return aws.Config{}, err
	}
	creds := output.Credentials
	cfg, err = config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
	))
	if err != nil {
		log.Printf("Error configuration: %s\n", err.Error())
		return aws.Config{}, err
	}
	return cfg, nil
}

// FetchSecret reads a plain-text secret from Secrets Manager.
func FetchSecret(ctx context.Context, cfg aws.Config, arn string) (string, error) {
	client := secretsmanager.NewFromConfig(cfg)
	output, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		log.Printf("Error retrieving secret %s: %s\n", arn, err.Error())
		return "", err
	}
	if output.SecretString == nil || *output.SecretString == "" {
		return "", errors.New("secret has no string value")
	}
	return *output.SecretString, nil
}
