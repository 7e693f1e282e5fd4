package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
)

// updatableFields maps the request field names that may be changed to their
// columns.
var updatableFields = map[string]string{
	"displayName":   dbservice.MeetingColDisplayName,
	"description":   dbservice.MeetingColDescription,
	"visibility":    dbservice.MeetingColVisibility,
	"record":        dbservice.MeetingColRecord,
	"allModerators": dbservice.MeetingColAllModerators,
	"waitModerator": dbservice.MeetingColWaitModerator,
}

// UpdateMeeting applies a change set keyed by request field name.
func (m *MeetingModel) UpdateMeeting(ctx context.Context, auth *authz.Context, meetingId string, changes map[string]interface{}) (*dbmodels.Meeting, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, helpers.NewValidationError(config.InvalidMeetingId)
	}
	if auth.IsAnonymous() {
		return nil, helpers.NewAuthzError(config.AnonymousCannotUpdate)
	}
	if len(changes) == 0 {
		return nil, helpers.NewValidationError(config.NoChangesProvided)
	}

	columns, err := meetingChangeColumns(changes)
	if err != nil {
		return nil, err
	}

	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return nil, err
	}
	role, err := m.explicitRole(auth, meeting.ID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManage(auth, meetingTarget(meeting), role) {
		return nil, helpers.NewAuthzError(config.NotAllowedToManage)
	}

	updated, err := m.ds.UpdateMeeting(meeting, columns, m.nowMs())
	if err != nil {
		return nil, err
	}

	members, err := m.ds.GetAllResourceMembers(meeting.ID)
	if err != nil {
		m.logger.WithError(err).WithField("meetingId", meeting.ID).Errorln("failed to list members to propagate the update")
	} else {
		m.propagateLastModified(updated, meeting.LastModified, mapKeys(members))
	}

	m.emit(ctx, &events.MeetingUpdated{
		Meta:       m.meta(auth, mapKeys(members)),
		Meeting:    updated,
		OldMeeting: meeting,
	})

	return updated, nil
}

func meetingChangeColumns(changes map[string]interface{}) (map[string]interface{}, error) {
	columns := make(map[string]interface{}, len(changes))
	for field, value := range changes {
		column, ok := updatableFields[field]
		if !ok {
			return nil, helpers.NewValidationError(config.InvalidMeetingField)
		}

		switch field {
		case "displayName":
			if err := validateStringChange(value, "required,max=1000", config.DisplayNameRequired, config.DisplayNameTooLong); err != nil {
				return nil, err
			}
		case "description":
			if err := validateStringChange(value, "required,max=10000", config.DescriptionRequired, config.DescriptionTooLong); err != nil {
				return nil, err
			}
		case "visibility":
			if err := validateVar(value, "required,visibility", config.InvalidVisibility); err != nil {
				return nil, err
			}
		default:
			if _, ok := value.(bool); !ok {
				return nil, helpers.NewValidationError(config.InvalidMeetingField)
			}
		}
		columns[column] = value
	}
	return columns, nil
}

func validateStringChange(value interface{}, tag, requiredMsg, tooLongMsg string) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return helpers.NewValidationError(requiredMsg)
	}
	return validateVar(s, tag, tooLongMsg)
}
