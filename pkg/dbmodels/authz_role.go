package dbmodels

import "github.com/mynaparrot/plugnmeet-meetings/pkg/config"

// AuthzRole grants a principal a role on a resource. Meeting membership and
// group membership are both stored here.
type AuthzRole struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ResourceId  string `gorm:"column:resource_id;size:255;NOT NULL;uniqueIndex:idx_resource_principal,priority:1"`
	PrincipalId string `gorm:"column:principal_id;size:255;NOT NULL;uniqueIndex:idx_resource_principal,priority:2;index"`
	Role        string `gorm:"column:role;size:20;NOT NULL"`
}

func (r *AuthzRole) TableName() string {
	return config.FormatDBTable("authz_roles")
}
