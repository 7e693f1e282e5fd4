package authz

import "github.com/mynaparrot/plugnmeet-meetings/pkg/config"

// Target is the resource or principal a permission is checked against.
type Target struct {
	Id          string
	TenantAlias string
	Visibility  string
}

// Access is the aggregated permission set of a caller on a meeting.
type Access struct {
	EffectiveRole string
	CanView       bool
	CanManage     bool
	CanShare      bool
	CanJoin       bool
}

func IsValidRole(role string) bool {
	return role == config.RoleManager || role == config.RoleMember
}

func IsValidVisibility(visibility string) bool {
	switch visibility {
	case config.VisibilityPublic, config.VisibilityLoggedIn, config.VisibilityPrivate:
		return true
	}
	return false
}

// HighestRole returns the dominant of two roles; manager beats member.
func HighestRole(a, b string) string {
	if a == config.RoleManager || b == config.RoleManager {
		return config.RoleManager
	}
	if a == config.RoleMember || b == config.RoleMember {
		return config.RoleMember
	}
	return ""
}

// EffectiveRole folds the implicit manager role of administrators into the
// explicit role the caller holds on target.
func EffectiveRole(ctx *Context, target Target, explicitRole string) string {
	if ctx.IsAnonymous() {
		return ""
	}
	if ctx.IsAdmin(target.TenantAlias) {
		return config.RoleManager
	}
	return explicitRole
}

// CanInteract decides whether the caller may interact with target across the
// tenant boundary.
func CanInteract(ctx *Context, targetTenant *config.TenantInfo, target Target) bool {
	if ctx.IsAnonymous() {
		return false
	}
	if ctx.User.Id == target.Id || ctx.IsAdmin(target.TenantAlias) {
		return true
	}
	if ctx.userTenantAlias() == target.TenantAlias {
		return target.Visibility != config.VisibilityPrivate
	}
	if targetTenant == nil || targetTenant.Private || ctx.userTenantPrivate() {
		return false
	}
	return target.Visibility == config.VisibilityPublic
}

// CanAddMember checks a principal may be made a member of a meeting.
func CanAddMember(ctx *Context, meetingTenant *config.TenantInfo, principalTenant *config.TenantInfo, principal Target) bool {
	if !CanInteract(ctx, principalTenant, principal) {
		return false
	}
	if meetingTenant == nil || principalTenant == nil {
		return false
	}
	if meetingTenant.Alias == principalTenant.Alias {
		return true
	}
	return !meetingTenant.Private && !principalTenant.Private
}

func CanView(ctx *Context, meeting Target, explicitRole string) bool {
	if EffectiveRole(ctx, meeting, explicitRole) != "" {
		return true
	}
	switch meeting.Visibility {
	case config.VisibilityPublic:
		return true
	case config.VisibilityLoggedIn:
		return !ctx.IsAnonymous() && ctx.userTenantAlias() == meeting.TenantAlias
	}
	return false
}

func CanManage(ctx *Context, meeting Target, explicitRole string) bool {
	return EffectiveRole(ctx, meeting, explicitRole) == config.RoleManager
}

// canInteractWithMeeting is true for members and for anyone the tenant and
// visibility rules let in.
func canInteractWithMeeting(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole string) bool {
	if ctx.IsAnonymous() {
		return false
	}
	if EffectiveRole(ctx, meeting, explicitRole) != "" {
		return true
	}
	return CanInteract(ctx, meetingTenant, meeting)
}

func CanShare(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole string) bool {
	if meeting.Visibility == config.VisibilityPrivate {
		return CanManage(ctx, meeting, explicitRole)
	}
	return canInteractWithMeeting(ctx, meetingTenant, meeting, explicitRole)
}

func CanJoin(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole string) bool {
	return canInteractWithMeeting(ctx, meetingTenant, meeting, explicitRole)
}

// CanPost is the permission to write messages on a meeting.
func CanPost(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole string) bool {
	return CanJoin(ctx, meetingTenant, meeting, explicitRole)
}

// CanSetPermissions is the permission to change meeting membership.
func CanSetPermissions(ctx *Context, meeting Target, explicitRole string) bool {
	return CanManage(ctx, meeting, explicitRole)
}

func CanDeleteMessage(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole, authorId string) bool {
	if ctx.IsAnonymous() {
		return false
	}
	if CanManage(ctx, meeting, explicitRole) {
		return true
	}
	return authorId != "" && authorId == ctx.User.Id && canInteractWithMeeting(ctx, meetingTenant, meeting, explicitRole)
}

// ResolveEffectiveMeetingAccess computes every meeting permission at once.
func ResolveEffectiveMeetingAccess(ctx *Context, meetingTenant *config.TenantInfo, meeting Target, explicitRole string) *Access {
	return &Access{
		EffectiveRole: EffectiveRole(ctx, meeting, explicitRole),
		CanView:       CanView(ctx, meeting, explicitRole),
		CanManage:     CanManage(ctx, meeting, explicitRole),
		CanShare:      CanShare(ctx, meetingTenant, meeting, explicitRole),
		CanJoin:       CanJoin(ctx, meetingTenant, meeting, explicitRole),
	}
}

// CanRemoveFromLibrary decides whether the caller may remove items from the
// library of owner. callerGroupRole is the caller's role on owner when owner
// is a group.
func CanRemoveFromLibrary(ctx *Context, owner Target, callerGroupRole string) bool {
	if ctx.IsAnonymous() {
		return false
	}
	if ctx.User.Id == owner.Id || ctx.IsAdmin(owner.TenantAlias) {
		return true
	}
	return callerGroupRole == config.RoleManager
}
