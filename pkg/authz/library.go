package authz

import (
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
)

// LibraryBucket returns the bucket of owner's library the caller may read,
// or "" when the library is off limits. callerRoleOnOwner is the caller's
// role on owner when owner is a group.
func LibraryBucket(ctx *Context, ownerTenant *config.TenantInfo, owner Target, callerRoleOnOwner string) string {
	if !ctx.IsAnonymous() && (ctx.User.Id == owner.Id || ctx.IsAdmin(owner.TenantAlias) || callerRoleOnOwner != "") {
		return dbmodels.LibraryBucketPrivate
	}

	if ctx.IsAnonymous() {
		if owner.Visibility == config.VisibilityPublic {
			return dbmodels.LibraryBucketPublic
		}
		return ""
	}

	if ctx.userTenantAlias() == owner.TenantAlias {
		if owner.Visibility == config.VisibilityPrivate {
			return ""
		}
		return dbmodels.LibraryBucketLoggedIn
	}

	if CanInteract(ctx, ownerTenant, owner) {
		return dbmodels.LibraryBucketPublic
	}
	return ""
}
