package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
)

// CreateMeeting stores a new meeting owned by the caller. The caller always
// ends up as a manager whatever role the request assigns.
func (m *MeetingModel) CreateMeeting(ctx context.Context, auth *authz.Context, r *CreateMeetingReq) (*dbmodels.Meeting, error) {
	if err := validateReq(r); err != nil {
		return nil, err
	}
	if auth.IsAnonymous() {
		return nil, helpers.NewAuthzError(config.AnonymousCannotCreate)
	}

	tenant := auth.User.Tenant
	if tenant == nil {
		tenant = auth.Tenant
	}

	members := make(map[string]string, len(r.Members)+1)
	for id, role := range r.Members {
		members[id] = role
	}
	delete(members, auth.UserId())

	if err := m.checkNewMembers(auth, tenant, mapKeys(members)); err != nil {
		return nil, err
	}
	members[auth.UserId()] = config.RoleManager

	visibility := r.Visibility
	if visibility == "" {
		visibility = config.VisibilityPublic
	}

	now := m.nowMs()
	meeting := &dbmodels.Meeting{
		ID:            helpers.NewMeetingId(tenant.Alias),
		TenantAlias:   tenant.Alias,
		CreatedBy:     auth.UserId(),
		DisplayName:   r.DisplayName,
		Description:   r.Description,
		Record:        r.Record,
		AllModerators: r.AllModerators,
		WaitModerator: r.WaitModerator,
		Visibility:    visibility,
		Created:       now,
		LastModified:  now,
	}
	if err := m.ds.CreateMeeting(meeting); err != nil {
		return nil, err
	}

	if err := m.ds.ApplyRoleChanges(meeting.ID, members); err != nil {
		return nil, err
	}

	memberIds := mapKeys(members)
	m.insertIntoLibraries(meeting, memberIds)

	m.emit(ctx, &events.MeetingCreated{
		Meta:    m.meta(auth, memberIds),
		Meeting: meeting,
		Members: members,
	})

	return meeting, nil
}
