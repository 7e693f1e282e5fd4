package authz

import "github.com/mynaparrot/plugnmeet-meetings/pkg/config"

// User is the authenticated principal of a request.
type User struct {
	Id            string
	DisplayName   string
	Visibility    string
	Tenant        *config.TenantInfo
	IsTenantAdmin bool
	IsGlobalAdmin bool
}

// Context carries the caller and the tenant the request was made on.
type Context struct {
	Tenant   *config.TenantInfo
	User     *User
	Protocol string
	Host     string
}

func (c *Context) IsAnonymous() bool {
	return c == nil || c.User == nil
}

// IsAdmin reports whether the caller administers tenantAlias.
func (c *Context) IsAdmin(tenantAlias string) bool {
	if c.IsAnonymous() {
		return false
	}
	if c.User.IsGlobalAdmin {
		return true
	}
	return c.User.IsTenantAdmin && c.User.Tenant != nil && c.User.Tenant.Alias == tenantAlias
}

func (c *Context) UserId() string {
	if c.IsAnonymous() {
		return ""
	}
	return c.User.Id
}

func (c *Context) userTenantAlias() string {
	if c.IsAnonymous() || c.User.Tenant == nil {
		return ""
	}
	return c.User.Tenant.Alias
}

func (c *Context) userTenantPrivate() bool {
	return !c.IsAnonymous() && c.User.Tenant != nil && c.User.Tenant.Private
}
