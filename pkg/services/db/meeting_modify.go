package dbservice

import (
	"fmt"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
)

// Meeting columns that may be changed after creation.
const (
	MeetingColDisplayName   = "display_name"
	MeetingColDescription   = "description"
	MeetingColVisibility    = "visibility"
	MeetingColRecord        = "record"
	MeetingColAllModerators = "all_moderators"
	MeetingColWaitModerator = "wait_moderator"
	MeetingColLastModified  = "last_modified"
)

func (s *DatabaseService) CreateMeeting(meeting *dbmodels.Meeting) error {
	return s.db.Create(meeting).Error
}

// UpdateMeeting writes changes (keyed by column) and stamps lastModified.
// The returned meeting is the original merged with the changes, so fields
// that were not part of the change set keep their stored values.
func (s *DatabaseService) UpdateMeeting(meeting *dbmodels.Meeting, changes map[string]interface{}, lastModified int64) (*dbmodels.Meeting, error) {
	update := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		update[k] = v
	}
	update[MeetingColLastModified] = lastModified

	result := s.db.Model(&dbmodels.Meeting{}).Where("id = ?", meeting.ID).Updates(update)
	if result.Error != nil {
		return nil, result.Error
	}

	updated := meeting.Clone()
	for k, v := range update {
		if err := applyMeetingChange(updated, k, v); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *DatabaseService) DeleteMeeting(id string) error {
	return s.db.Where("id = ?", id).Delete(&dbmodels.Meeting{}).Error
}

func applyMeetingChange(m *dbmodels.Meeting, column string, value interface{}) error {
	var ok bool
	switch column {
	case MeetingColDisplayName:
		m.DisplayName, ok = value.(string)
	case MeetingColDescription:
		m.Description, ok = value.(string)
	case MeetingColVisibility:
		m.Visibility, ok = value.(string)
	case MeetingColRecord:
		var r bool
		r, ok = value.(bool)
		m.Record = &r
	case MeetingColAllModerators:
		m.AllModerators, ok = value.(bool)
	case MeetingColWaitModerator:
		m.WaitModerator, ok = value.(bool)
	case MeetingColLastModified:
		m.LastModified, ok = value.(int64)
	}
	if !ok {
		return fmt.Errorf("unsupported value %v for meeting column %s", value, column)
	}
	return nil
}
