package dbservice

import (
	"errors"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *DatabaseService) GetPrincipal(id string) (*dbmodels.Principal, error) {
	p := new(dbmodels.Principal)

	result := s.db.Where("id = ?", id).Take(p)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return p, nil
}

// GetPrincipalsByIds returns the principals that exist, keyed by id.
func (s *DatabaseService) GetPrincipalsByIds(ids []string) (map[string]*dbmodels.Principal, error) {
	out := make(map[string]*dbmodels.Principal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []*dbmodels.Principal
	if err := s.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// UpsertPrincipal inserts the principal or refreshes its profile fields.
func (s *DatabaseService) UpsertPrincipal(p *dbmodels.Principal) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_alias", "display_name", "visibility", "email", "last_modified"}),
	}).Create(p).Error
}
