package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/sirupsen/logrus"
)

// DeleteMeeting revokes every role, clears every library and then removes
// the meeting. Role and library failures are logged per principal and do not
// stop the delete.
func (m *MeetingModel) DeleteMeeting(ctx context.Context, auth *authz.Context, meetingId string) error {
	if !helpers.IsValidMeetingId(meetingId) {
		return helpers.NewValidationError(config.InvalidMeetingId)
	}

	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return err
	}
	role, err := m.explicitRole(auth, meeting.ID)
	if err != nil {
		return err
	}
	if !authz.CanManage(auth, meetingTarget(meeting), role) {
		return helpers.NewAuthzError(config.NotAllowedToManage)
	}

	members, err := m.ds.GetAllResourceMembers(meeting.ID)
	if err != nil {
		return err
	}
	memberIds := mapKeys(members)

	var failed []string
	for _, id := range memberIds {
		if err = m.ds.RemoveRole(meeting.ID, id); err != nil {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		m.logger.WithFields(logrus.Fields{
			"meetingId":    meeting.ID,
			"principalIds": failed,
		}).Errorln("error revoking meeting roles")
	}
	m.removeFromLibraries(meeting.ID, memberIds)

	if err = m.ds.DeleteMeeting(meeting.ID); err != nil {
		return err
	}

	if err = m.rs.DeleteMessageBox(ctx, meeting.ID); err != nil {
		m.logger.WithError(err).WithField("meetingId", meeting.ID).Warnln("failed to remove the message box")
	}

	m.emit(ctx, &events.MeetingDeleted{
		Meta:      m.meta(auth, memberIds),
		Meeting:   meeting,
		MemberIds: memberIds,
	})
	return nil
}
