package dbmodels

import (
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
)

// Principal mirrors a user or group of the host platform.
type Principal struct {
	ID           string `gorm:"column:id;primaryKey;size:255"`
	TenantAlias  string `gorm:"column:tenant_alias;size:100;index;NOT NULL"`
	DisplayName  string `gorm:"column:display_name;size:1000;NOT NULL"`
	Visibility   string `gorm:"column:visibility;size:20;NOT NULL"`
	Email        string `gorm:"column:email;size:255"`
	Created      int64  `gorm:"column:created;NOT NULL"`
	LastModified int64  `gorm:"column:last_modified;NOT NULL"`
}

func (p *Principal) TableName() string {
	return config.FormatDBTable("principals")
}

func (p *Principal) IsGroup() bool {
	return helpers.IsGroupId(p.ID)
}

func (p *Principal) ResourceType() string {
	if p.IsGroup() {
		return "group"
	}
	return "user"
}

// BasicProfile is the public view of a principal embedded in API responses.
type BasicProfile struct {
	Id           string `json:"id"`
	TenantAlias  string `json:"tenantAlias"`
	DisplayName  string `json:"displayName"`
	Visibility   string `json:"visibility"`
	ProfilePath  string `json:"profilePath"`
	ResourceType string `json:"resourceType"`
}

func (p *Principal) BasicProfile() *BasicProfile {
	return &BasicProfile{
		Id:           p.ID,
		TenantAlias:  p.TenantAlias,
		DisplayName:  p.DisplayName,
		Visibility:   p.Visibility,
		ProfilePath:  helpers.ProfilePath(p.ResourceType(), p.ID),
		ResourceType: p.ResourceType(),
	}
}
