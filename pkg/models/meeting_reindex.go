package models

import (
	"context"
	"errors"
	"time"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/sirupsen/logrus"
)

// ErrReindexRunning is returned when another process holds the reindex lock.
var ErrReindexRunning = errors.New("a library reindex is already running")

const reindexLockTTL = 30 * time.Minute

// ReindexLibraries rewrites the library entries of every member of every
// meeting at the meeting's current rank. It returns the number of meetings
// processed.
func (m *MeetingModel) ReindexLibraries(ctx context.Context) (int, error) {
	acquired, lockValue, err := m.rs.LockReindex(ctx, reindexLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, ErrReindexRunning
	}
	defer func() {
		if err := m.rs.UnlockReindex(context.Background(), lockValue); err != nil {
			m.logger.WithError(err).Warnln("failed to release the reindex lock")
		}
	}()

	fields := []string{"id", "visibility", "last_modified"}
	total := 0
	err = m.ds.IterateAllMeetings(fields, config.ReindexBatchSize, func(batch []*dbmodels.Meeting) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, meeting := range batch {
			members, err := m.ds.GetAllResourceMembers(meeting.ID)
			if err != nil {
				return err
			}
			for id := range members {
				if err = m.ds.ResetLibraryEntry(id, meeting.ID, meeting.Visibility, meeting.LastModified); err != nil {
					m.logger.WithError(err).WithFields(logrus.Fields{
						"meetingId":   meeting.ID,
						"principalId": id,
					}).Errorln("failed to reindex library entry")
				}
			}
		}

		total += len(batch)
		m.logger.Infof("reindexed %d meetings", total)
		return nil
	})

	return total, err
}
