package models

import (
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/sirupsen/logrus"
)

// needsTouch reports whether activity on meeting may bump its lastModified.
func (m *MeetingModel) needsTouch(meeting *dbmodels.Meeting) bool {
	if meeting.LastModified == 0 {
		return true
	}
	return m.nowMs()-meeting.LastModified > config.MeetingUpdateThreshold.Milliseconds()
}

// touch bumps lastModified when the update threshold has passed and
// re-ranks the libraries of memberIds. The returned meeting carries the
// rank new library entries should use. Failures are logged only.
func (m *MeetingModel) touch(meeting *dbmodels.Meeting, memberIds []string) *dbmodels.Meeting {
	if !m.needsTouch(meeting) {
		return meeting
	}

	updated, err := m.ds.UpdateMeeting(meeting, nil, m.nowMs())
	if err != nil {
		m.logger.WithError(err).WithField("meetingId", meeting.ID).Errorln("failed to touch meeting")
		return meeting
	}

	m.propagateLastModified(updated, meeting.LastModified, memberIds)
	return updated
}

// propagateLastModified moves the library entries of memberIds from oldRank
// to the meeting's current lastModified. It runs in the background.
func (m *MeetingModel) propagateLastModified(meeting *dbmodels.Meeting, oldRank int64, memberIds []string) {
	if len(memberIds) == 0 {
		return
	}

	meeting = meeting.Clone()
	ids := append([]string(nil), memberIds...)

	m.pending.Add(1)
	m.pool.Submit(func() {
		defer m.pending.Done()

		var failed []string
		for _, id := range ids {
			err := m.ds.UpdateLibraryEntry(id, meeting.ID, meeting.Visibility, oldRank, meeting.LastModified)
			if err != nil {
				m.logger.WithError(err).Debugln("library update failed for", id)
				failed = append(failed, id)
			}
		}
		if len(failed) > 0 {
			m.logger.WithFields(logrus.Fields{
				"meetingId":    meeting.ID,
				"principalIds": failed,
			}).Errorln("error updating libraries with the new meeting rank")
		}
	})
}

// insertIntoLibraries adds meeting to every library of principalIds.
func (m *MeetingModel) insertIntoLibraries(meeting *dbmodels.Meeting, principalIds []string) {
	var failed []string
	for _, id := range principalIds {
		if err := m.ds.InsertLibraryEntry(id, meeting.ID, meeting.Visibility, meeting.LastModified); err != nil {
			m.logger.WithError(err).Debugln("library insert failed for", id)
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		m.logger.WithFields(logrus.Fields{
			"meetingId":    meeting.ID,
			"principalIds": failed,
		}).Errorln("error inserting meeting into libraries")
	}
}

// removeFromLibraries drops meeting from every library of principalIds.
func (m *MeetingModel) removeFromLibraries(meetingId string, principalIds []string) {
	var failed []string
	for _, id := range principalIds {
		if err := m.ds.RemoveLibraryEntry(id, meetingId); err != nil {
			m.logger.WithError(err).Debugln("library removal failed for", id)
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		m.logger.WithFields(logrus.Fields{
			"meetingId":    meetingId,
			"principalIds": failed,
		}).Errorln("error removing meeting from libraries")
	}
}
