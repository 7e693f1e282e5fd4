package dbservice

import (
	"errors"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxGroupDepth limits how far group-in-group membership is followed.
const maxGroupDepth = 5

// GetRole returns the direct role of principalId on resourceId, or "".
func (s *DatabaseService) GetRole(principalId, resourceId string) (string, error) {
	r := new(dbmodels.AuthzRole)

	result := s.db.Where("resource_id = ? AND principal_id = ?", resourceId, principalId).Take(r)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return "", nil
	case result.Error != nil:
		return "", result.Error
	}

	return r.Role, nil
}

// GetRoles returns the direct roles the given principals hold on resourceId.
func (s *DatabaseService) GetRoles(principalIds []string, resourceId string) (map[string]string, error) {
	out := make(map[string]string)
	if len(principalIds) == 0 {
		return out, nil
	}

	var rows []dbmodels.AuthzRole
	err := s.db.Where("resource_id = ? AND principal_id IN ?", resourceId, principalIds).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PrincipalId] = r.Role
	}
	return out, nil
}

// GetEffectiveRole resolves the role of principalId on resourceId, taking
// roles granted to groups the principal belongs to into account. Manager
// wins over member.
func (s *DatabaseService) GetEffectiveRole(principalId, resourceId string) (string, error) {
	ids, err := s.getGroupAncestors(principalId)
	if err != nil {
		return "", err
	}
	ids = append(ids, principalId)

	roles, err := s.GetRoles(ids, resourceId)
	if err != nil {
		return "", err
	}

	best := ""
	for _, role := range roles {
		best = authz.HighestRole(best, role)
	}
	return best, nil
}

// getGroupAncestors returns every group principalId is a member of, directly
// or through other groups.
func (s *DatabaseService) getGroupAncestors(principalId string) ([]string, error) {
	seen := map[string]bool{principalId: true}
	var groups []string
	frontier := []string{principalId}

	for depth := 0; depth < maxGroupDepth && len(frontier) > 0; depth++ {
		var parents []string
		err := s.db.Model(&dbmodels.AuthzRole{}).
			Where("principal_id IN ? AND resource_id LIKE ?", frontier, config.GroupIdPrefix+":%").
			Distinct().Pluck("resource_id", &parents).Error
		if err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, g := range parents {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
				frontier = append(frontier, g)
			}
		}
	}
	return groups, nil
}

// GetResourceMembers pages the members of a resource ordered by principal id.
// start is exclusive; the returned token is empty on the last page.
func (s *DatabaseService) GetResourceMembers(resourceId, start string, limit int) ([]dbmodels.AuthzRole, string, error) {
	var rows []dbmodels.AuthzRole
	q := s.db.Where("resource_id = ?", resourceId)
	if start != "" {
		q = q.Where("principal_id > ?", start)
	}
	if err := q.Order("principal_id").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(rows) > limit {
		rows = rows[:limit]
		nextToken = rows[limit-1].PrincipalId
	}
	return rows, nextToken, nil
}

// GetAllResourceMembers returns principal id → role for every member.
func (s *DatabaseService) GetAllResourceMembers(resourceId string) (map[string]string, error) {
	var rows []dbmodels.AuthzRole
	if err := s.db.Where("resource_id = ?", resourceId).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.PrincipalId] = r.Role
	}
	return out, nil
}

// ApplyRoleChanges grants or revokes roles in one transaction. An empty role
// revokes.
func (s *DatabaseService) ApplyRoleChanges(resourceId string, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for principalId, role := range changes {
			if role == "" {
				err := tx.Where("resource_id = ? AND principal_id = ?", resourceId, principalId).Delete(&dbmodels.AuthzRole{}).Error
				if err != nil {
					return err
				}
				continue
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "resource_id"}, {Name: "principal_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"role"}),
			}).Create(&dbmodels.AuthzRole{
				ResourceId:  resourceId,
				PrincipalId: principalId,
				Role:        role,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveRole revokes a single principal's role.
func (s *DatabaseService) RemoveRole(resourceId, principalId string) error {
	return s.db.Where("resource_id = ? AND principal_id = ?", resourceId, principalId).Delete(&dbmodels.AuthzRole{}).Error
}
