package aws

import (
	"context"
	"encoding/json"
	"log"

	"standup/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type TeamEventPublisher struct {
	inner    *sns.Client
	topicArn string
}

func NewTeamEventPublisher(cfg aws.Config, topicArn string) *TeamEventPublisher {
	return &TeamEventPublisher{
		inner:    sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}
}

func (p *TeamEventPublisher) Publish(ctx context.Context, event types.TeamEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	output, err := p.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
			"teamId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.TeamID),
			},
		},
	})
	if err != nil {
		log.Printf("Error publishing %s for team %s: %s\n", event.Type, event.TeamID, err.Error())
		return err
	}
	log.Printf("Published %s [%s]\n", event.Type, aws.ToString(output.MessageId))
	return nil
}
