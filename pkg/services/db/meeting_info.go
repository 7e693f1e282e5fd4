package dbservice

import (
	"errors"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) GetMeeting(id string) (*dbmodels.Meeting, error) {
	meeting := new(dbmodels.Meeting)

	result := s.db.Where("id = ?", id).Take(meeting)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return meeting, nil
}

// GetMeetingsByIds returns the meetings in the order of ids. Ids that do not
// resolve leave a nil hole at their position.
func (s *DatabaseService) GetMeetingsByIds(ids []string, fields ...string) ([]*dbmodels.Meeting, error) {
	out := make([]*dbmodels.Meeting, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []*dbmodels.Meeting
	q := s.db.Where("id IN ?", ids)
	if len(fields) > 0 {
		q = q.Select(withId(fields))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	byId := make(map[string]*dbmodels.Meeting, len(rows))
	for _, r := range rows {
		byId[r.ID] = r
	}
	for i, id := range ids {
		out[i] = byId[id]
	}

	return out, nil
}

// IterateAllMeetings scans the whole table in batches. The scan stops as soon
// as onEachBatch returns an error, which is then returned.
func (s *DatabaseService) IterateAllMeetings(fields []string, batchSize int, onEachBatch func(batch []*dbmodels.Meeting) error) error {
	var rows []*dbmodels.Meeting
	q := s.db.Model(&dbmodels.Meeting{})
	if len(fields) > 0 {
		q = q.Select(withId(fields))
	}

	result := q.FindInBatches(&rows, batchSize, func(tx *gorm.DB, batch int) error {
		return onEachBatch(rows)
	})
	return result.Error
}

func withId(fields []string) []string {
	for _, f := range fields {
		if f == "id" {
			return fields
		}
	}
	return append([]string{"id"}, fields...)
}
