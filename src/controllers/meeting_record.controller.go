package controllers

import (
	"context"
	"time"

	"standup/src/common"
	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

type MeetingRecordController struct {
	store    store.Store
	notifier Notifier
}

func NewMeetingRecordController(s store.Store, notifier Notifier) *MeetingRecordController {
	return &MeetingRecordController{store: s, notifier: notifierOrNoop(notifier)}
}

// Create snapshots the current status of every member under the team and
// dateTime. Members who never set a status are recorded with defaults.
func (c *MeetingRecordController) Create(ctx context.Context, requester, teamID string, body types.CreateMeetingRecordRequestBody) (*models.MeetingRecord, error) {
	var record *models.MeetingRecord
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		team, err := loadTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if err := common.RequireOwner(team, requester, "record meetings"); err != nil {
			return err
		}
		if body.MeetingName != "" && team.Meetings.Index(body.MeetingName) < 0 {
			return types.NewValidationError("meetingName", "meeting "+body.MeetingName+" is not defined for this team")
		}

		statuses, err := tx.BatchGetUserStatuses(ctx, team.MemberEmails)
		if err != nil {
			return err
		}
		byEmail := make(map[string]models.UserStatus, len(statuses))
		for _, s := range statuses {
			byEmail[s.Email] = s
		}
		snapshots := make(types.StatusSnapshots, 0, len(team.MemberEmails))
		for _, email := range team.MemberEmails {
			status, ok := byEmail[email]
			if !ok {
				status = *models.NewDefaultUserStatus(email)
			}
			snapshots = append(snapshots, status.Snapshot())
		}

		record = &models.MeetingRecord{
			TeamID:        teamID,
			DateTime:      body.DateTime,
			MeetingName:   body.MeetingName,
			Presentations: snapshots,
			CreatedAt:     time.Now(),
		}
		return storeError(tx.CreateMeetingRecord(ctx, record), "meeting record", body.DateTime)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, c.notifier, types.EventMeetingRecordCreated, teamID, "", requester)
	return record, nil
}

func (c *MeetingRecordController) List(ctx context.Context, requester, teamID string) ([]models.MeetingRecord, error) {
	team, err := loadTeam(ctx, c.store, teamID)
	if err != nil {
		return nil, err
	}
	if err := common.RequireMember(team, requester); err != nil {
		return nil, err
	}
	records, err := c.store.ListMeetingRecords(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return records, nil
}
