package helpers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
)

// ResourceId is a parsed `<type>:<tenantAlias>:<resourceId>` identifier.
type ResourceId struct {
	Type        string
	TenantAlias string
	Id          string
}

func ParseResourceId(id string) (*ResourceId, bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, false
	}
	return &ResourceId{Type: parts[0], TenantAlias: parts[1], Id: parts[2]}, true
}

func NewMeetingId(tenantAlias string) string {
	return fmt.Sprintf("%s:%s:%s", config.MeetingIdPrefix, tenantAlias, uuid.NewString())
}

func IsValidMeetingId(id string) bool {
	r, ok := ParseResourceId(id)
	return ok && r.Type == config.MeetingIdPrefix
}

func IsValidPrincipalId(id string) bool {
	r, ok := ParseResourceId(id)
	return ok && (r.Type == config.UserIdPrefix || r.Type == config.GroupIdPrefix)
}

func IsGroupId(id string) bool {
	r, ok := ParseResourceId(id)
	return ok && r.Type == config.GroupIdPrefix
}

// TenantOf returns the tenant alias embedded in a resource id.
func TenantOf(id string) string {
	if r, ok := ParseResourceId(id); ok {
		return r.TenantAlias
	}
	return ""
}

// ProfilePath builds the host-relative profile path of a resource.
func ProfilePath(kind, id string) string {
	r, ok := ParseResourceId(id)
	if !ok {
		return ""
	}
	return fmt.Sprintf("/%s/%s/%s", kind, r.TenantAlias, r.Id)
}
