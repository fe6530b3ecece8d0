package common

import (
	"context"
	"log"
	"sort"

	"standup/src/models"
	"standup/src/store"
	"standup/src/types"
)

type ReconcileReport struct {
	TeamsTouched int   `json:"teamsTouched"`
	Created      int   `json:"created"`
	Updated      int   `json:"updated"`
	Deleted      int64 `json:"deleted"`
}

func (r ReconcileReport) Changed() bool {
	return r.TeamsTouched > 0 || r.Created > 0 || r.Updated > 0 || r.Deleted > 0
}

// ReconcileMemberships rebuilds the UserInTeam index from the team
// aggregates. Running it twice in a row leaves the second run with nothing to
// do.
//
// Owners are never removed from a team they own. Any other email listed by
// more than one team stays with the lowest team id and is dropped by the
// others.
func ReconcileMemberships(ctx context.Context, s store.Store) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.Transaction(ctx, func(tx store.Store) error {
		report = ReconcileReport{}
		teams, err := tx.ListTeams(ctx)
		if err != nil {
			return err
		}
		sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
		index, err := tx.ListUserInTeams(ctx)
		if err != nil {
			return err
		}

		want := make(map[string]models.UserInTeam)
		for _, team := range teams {
			if team.OwnerEmail == "" {
				continue
			}
			if claimed, ok := want[team.OwnerEmail]; ok {
				log.Printf("[reconcile] %s owns teams %s and %s\n", team.OwnerEmail, claimed.TeamID, team.ID)
				continue
			}
			want[team.OwnerEmail] = models.UserInTeam{UserEmail: team.OwnerEmail, TeamID: team.ID}
		}

		for i := range teams {
			team := &teams[i]
			changed := false
			members := make(types.StringList, 0, len(team.MemberEmails)+1)
			if team.OwnerEmail != "" && !team.MemberEmails.Contains(team.OwnerEmail) {
				members = append(members, team.OwnerEmail)
				changed = true
			}
			for _, email := range team.MemberEmails {
				if members.Contains(email) {
					changed = true
					continue
				}
				// An owner of several teams stays listed in each; the index
				// points at the lowest id.
				if email == team.OwnerEmail {
					members = append(members, email)
					continue
				}
				if claimed, ok := want[email]; ok && claimed.TeamID != team.ID {
					changed = true
					continue
				}
				want[email] = models.UserInTeam{UserEmail: email, TeamID: team.ID}
				members = append(members, email)
			}
			pending := make(types.StringList, 0, len(team.PendingMemberEmails))
			for _, email := range team.PendingMemberEmails {
				if members.Contains(email) || pending.Contains(email) {
					changed = true
					continue
				}
				if claimed, ok := want[email]; ok && claimed.TeamID != team.ID {
					changed = true
					continue
				}
				want[email] = models.UserInTeam{UserEmail: email, TeamID: team.ID, Pending: true}
				pending = append(pending, email)
			}
			if changed {
				team.MemberEmails = members
				team.PendingMemberEmails = pending
				if err := tx.UpdateTeam(ctx, team); err != nil {
					return err
				}
				report.TeamsTouched++
			}
		}

		current := make(map[string]models.UserInTeam, len(index))
		for _, uit := range index {
			current[uit.UserEmail] = uit
		}
		emails := make([]string, 0, len(want))
		for email := range want {
			emails = append(emails, email)
		}
		sort.Strings(emails)
		for _, email := range emails {
			w := want[email]
			cur, ok := current[email]
			switch {
			case !ok:
				if err := tx.CreateUserInTeam(ctx, &w); err != nil {
					return err
				}
				report.Created++
			case cur.TeamID != w.TeamID || cur.Pending != w.Pending:
				if err := tx.UpdateUserInTeam(ctx, &w); err != nil {
					return err
				}
				report.Updated++
			}
		}

		var stale []string
		for email := range current {
			if _, ok := want[email]; !ok {
				stale = append(stale, email)
			}
		}
		sort.Strings(stale)
		deleted, err := tx.BatchDeleteUserInTeams(ctx, stale)
		if err != nil {
			return err
		}
		report.Deleted = deleted
		return nil
	})
	return report, err
}
