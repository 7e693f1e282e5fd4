package dbmodels

import (
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"gorm.io/gorm"
)

type Meeting struct {
	ID            string `gorm:"column:id;primaryKey;size:255" json:"id"`
	TenantAlias   string `gorm:"column:tenant_alias;size:100;index;NOT NULL" json:"tenantAlias"`
	CreatedBy     string `gorm:"column:created_by;size:255;NOT NULL" json:"createdBy"`
	DisplayName   string `gorm:"column:display_name;size:1000;NOT NULL" json:"displayName"`
	Description   string `gorm:"column:description;type:text" json:"description"`
	Record        *bool  `gorm:"column:record" json:"record,omitempty"`
	AllModerators bool   `gorm:"column:all_moderators;NOT NULL" json:"allModerators"`
	WaitModerator bool   `gorm:"column:wait_moderator;NOT NULL" json:"waitModerator"`
	Visibility    string `gorm:"column:visibility;size:20;NOT NULL" json:"visibility"`
	Created       int64  `gorm:"column:created;NOT NULL" json:"created"`
	LastModified  int64  `gorm:"column:last_modified;NOT NULL" json:"lastModified"`

	ProfilePath  string `gorm:"-" json:"profilePath"`
	ResourceType string `gorm:"-" json:"resourceType"`
}

func (m *Meeting) TableName() string {
	return config.FormatDBTable("meetings")
}

func (m *Meeting) AfterFind(_ *gorm.DB) error {
	m.fillDerived()
	return nil
}

func (m *Meeting) AfterCreate(_ *gorm.DB) error {
	m.fillDerived()
	return nil
}

func (m *Meeting) fillDerived() {
	m.ProfilePath = helpers.ProfilePath(config.ResourceTypeMeeting, m.ID)
	m.ResourceType = config.ResourceTypeMeeting
}

// Clone returns a shallow copy that does not share the record flag.
func (m *Meeting) Clone() *Meeting {
	c := *m
	if m.Record != nil {
		r := *m.Record
		c.Record = &r
	}
	c.fillDerived()
	return &c
}
