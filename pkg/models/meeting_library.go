package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	"github.com/sirupsen/logrus"
)

// GetMeetingsLibrary pages the meetings library of principalId, filtered to
// what the caller may see.
func (m *MeetingModel) GetMeetingsLibrary(ctx context.Context, auth *authz.Context, principalId string, r *PageReq) (*MeetingsLibrary, error) {
	if !helpers.IsValidPrincipalId(principalId) {
		return nil, helpers.NewValidationError(config.InvalidPrincipalId)
	}
	if err := validateReq(r); err != nil {
		return nil, err
	}
	if r.Start != "" {
		if _, _, err := dbservice.ParseLibraryToken(r.Start); err != nil {
			return nil, helpers.NewValidationError(config.InvalidStart)
		}
	}
	limit := pageLimit(r.Limit, config.DefaultLibraryLimit, config.MaxLibraryLimit)

	owner, err := m.ds.GetPrincipal(principalId)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, helpers.NewNotFoundError(config.PrincipalNotFound)
	}

	callerRole := ""
	if owner.IsGroup() {
		if callerRole, err = m.explicitRole(auth, owner.ID); err != nil {
			return nil, err
		}
	}

	bucket := authz.LibraryBucket(auth, m.tenants.GetTenant(owner.TenantAlias), principalTarget(owner), callerRole)
	if bucket == "" {
		return nil, helpers.NewAuthzError(config.NotAllowedToViewLibrary)
	}

	entries, nextToken, err := m.ds.GetLibraryPage(owner.ID, bucket, r.Start, limit)
	if err != nil {
		return nil, err
	}

	ids, duplicates := dedupeLibraryEntries(entries)

	meetings, err := m.ds.GetMeetingsByIds(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*dbmodels.Meeting, 0, len(meetings))
	for i, meeting := range meetings {
		if meeting == nil {
			m.logger.WithField("libraryId", owner.ID).Warnln("library references a missing meeting", ids[i])
			continue
		}
		if rank, ok := duplicates[meeting.ID]; ok {
			m.repairLibraryEntry(owner.ID, meeting, rank)
		}
		results = append(results, meeting)
	}

	m.emit(ctx, &events.MeetingLibraryRead{
		Meta:        m.meta(auth, nil),
		PrincipalId: owner.ID,
		Start:       r.Start,
		Limit:       limit,
	})

	return &MeetingsLibrary{
		Results:   results,
		NextToken: nextToken,
	}, nil
}

// dedupeLibraryEntries keeps the first, highest ranked, entry of every
// resource and reports the rank to keep for resources seen more than once.
func dedupeLibraryEntries(entries []dbmodels.LibraryEntry) ([]string, map[string]int64) {
	ids := make([]string, 0, len(entries))
	keep := make(map[string]int64, len(entries))
	duplicates := make(map[string]int64)

	for _, e := range entries {
		if rank, seen := keep[e.ResourceId]; seen {
			duplicates[e.ResourceId] = rank
			continue
		}
		keep[e.ResourceId] = e.SortRank
		ids = append(ids, e.ResourceId)
	}
	return ids, duplicates
}

// repairLibraryEntry collapses the copies of meeting in a library into a
// single entry at rank.
func (m *MeetingModel) repairLibraryEntry(libraryId string, meeting *dbmodels.Meeting, rank int64) {
	log := m.logger.WithFields(logrus.Fields{
		"libraryId":  libraryId,
		"resourceId": meeting.ID,
	})
	log.Warnln("duplicate library entries found, repairing")

	if err := m.ds.ResetLibraryEntry(libraryId, meeting.ID, meeting.Visibility, rank); err != nil {
		log.WithError(err).Errorln("failed to repair library entry")
	}
}
