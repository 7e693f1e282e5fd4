package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"golang.org/x/sync/errgroup"
)

// GetMeetingMembers pages the members of a meeting together with their
// basic profiles.
func (m *MeetingModel) GetMeetingMembers(ctx context.Context, auth *authz.Context, meetingId string, r *PageReq) (*MeetingMembers, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, helpers.NewValidationError(config.InvalidMeetingId)
	}
	if err := validateReq(r); err != nil {
		return nil, err
	}
	limit := pageLimit(r.Limit, config.DefaultMembersLimit, config.MaxMembersLimit)

	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return nil, err
	}
	access, err := m.access(auth, meeting)
	if err != nil {
		return nil, err
	}
	if !access.CanView {
		return nil, helpers.NewAuthzError(config.NotAllowedToView)
	}

	roles, nextToken, err := m.ds.GetResourceMembers(meeting.ID, r.Start, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(roles))
	for i, role := range roles {
		ids[i] = role.PrincipalId
	}
	principals, err := m.ds.GetPrincipalsByIds(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*MeetingMember, 0, len(roles))
	for _, role := range roles {
		p, ok := principals[role.PrincipalId]
		if !ok {
			m.logger.WithField("meetingId", meeting.ID).Warnln("skipping member without a principal:", role.PrincipalId)
			continue
		}
		results = append(results, &MeetingMember{
			Profile: p.BasicProfile(),
			Role:    role.Role,
		})
	}

	return &MeetingMembers{
		Results:   results,
		NextToken: nextToken,
	}, nil
}

// ShareMeeting makes the given principals members. Principals that already
// hold a role are left alone.
func (m *MeetingModel) ShareMeeting(ctx context.Context, auth *authz.Context, r *ShareMeetingReq) error {
	if err := validateReq(r); err != nil {
		return err
	}
	if auth.IsAnonymous() {
		return helpers.NewAuthzError(config.AnonymousCannotShare)
	}

	meeting, err := m.getMeeting(r.MeetingId)
	if err != nil {
		return err
	}

	var access *authz.Access
	var members map[string]string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		access, err = m.access(auth, meeting)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = m.ds.GetAllResourceMembers(meeting.ID)
		return err
	})
	if err = g.Wait(); err != nil {
		return err
	}

	if !access.CanShare {
		return helpers.NewAuthzError(config.NotAllowedToShare)
	}

	var newIds []string
	seen := make(map[string]bool, len(r.Members))
	for _, id := range r.Members {
		if _, ok := members[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		newIds = append(newIds, id)
	}
	if len(newIds) == 0 {
		return nil
	}

	if err = m.checkNewMembers(auth, m.tenants.GetTenant(meeting.TenantAlias), newIds); err != nil {
		return err
	}

	changes := make(map[string]string, len(newIds))
	for _, id := range newIds {
		changes[id] = config.RoleMember
	}
	if err = m.ds.ApplyRoleChanges(meeting.ID, changes); err != nil {
		return err
	}

	updated := m.touch(meeting, mapKeys(members))
	m.insertIntoLibraries(updated, newIds)

	m.emit(ctx, &events.MeetingMembersUpdated{
		Meta:    m.meta(auth, newIds),
		Meeting: updated,
		Added:   changes,
		Updated: map[string]string{},
		Removed: []string{},
	})
	return nil
}

// membershipDelta is the effect of a set of role changes on the current
// members.
type membershipDelta struct {
	added   map[string]string
	updated map[string]string
	removed []string
	result  map[string]string
}

func computeMembershipDelta(current map[string]string, changes map[string]RoleChange) *membershipDelta {
	d := &membershipDelta{
		added:   make(map[string]string),
		updated: make(map[string]string),
		removed: []string{},
		result:  make(map[string]string, len(current)),
	}
	for id, role := range current {
		d.result[id] = role
	}

	for id, change := range changes {
		role, isMember := current[id]
		switch {
		case change == RoleRemove:
			if isMember {
				d.removed = append(d.removed, id)
				delete(d.result, id)
			}
		case !isMember:
			d.added[id] = string(change)
			d.result[id] = string(change)
		case role != string(change):
			d.updated[id] = string(change)
			d.result[id] = string(change)
		}
	}
	return d
}

func (d *membershipDelta) empty() bool {
	return len(d.added) == 0 && len(d.updated) == 0 && len(d.removed) == 0
}

// roleChanges flattens the delta into the form the role store applies.
func (d *membershipDelta) roleChanges() map[string]string {
	out := make(map[string]string, len(d.added)+len(d.updated)+len(d.removed))
	for id, role := range d.added {
		out[id] = role
	}
	for id, role := range d.updated {
		out[id] = role
	}
	for _, id := range d.removed {
		out[id] = ""
	}
	return out
}

// SetMeetingPermissions adds, updates and removes members in one go. A
// change that would leave the meeting without a manager is rejected.
func (m *MeetingModel) SetMeetingPermissions(ctx context.Context, auth *authz.Context, r *SetMeetingPermissionsReq) error {
	if err := validateReq(r); err != nil {
		return err
	}
	if auth.IsAnonymous() {
		return helpers.NewAuthzError(config.AnonymousCannotSetPerms)
	}

	meeting, err := m.getMeeting(r.MeetingId)
	if err != nil {
		return err
	}
	role, err := m.explicitRole(auth, meeting.ID)
	if err != nil {
		return err
	}
	if !authz.CanSetPermissions(auth, meetingTarget(meeting), role) {
		return helpers.NewAuthzError(config.NotAllowedToManage)
	}

	current, err := m.ds.GetAllResourceMembers(meeting.ID)
	if err != nil {
		return err
	}
	delta := computeMembershipDelta(current, r.Changes)

	if err = m.checkNewMembers(auth, m.tenants.GetTenant(meeting.TenantAlias), mapKeys(delta.added)); err != nil {
		return err
	}
	if countManagers(delta.result) == 0 {
		return helpers.NewBusinessRuleError(config.NoManagersLeft)
	}
	if delta.empty() {
		return nil
	}

	if err = m.ds.ApplyRoleChanges(meeting.ID, delta.roleChanges()); err != nil {
		return err
	}

	m.removeFromLibraries(meeting.ID, delta.removed)

	var existing []string
	for id := range delta.result {
		if _, isNew := delta.added[id]; !isNew {
			existing = append(existing, id)
		}
	}
	updated := m.touch(meeting, existing)
	m.insertIntoLibraries(updated, mapKeys(delta.added))

	recipients := append(mapKeys(delta.added), mapKeys(delta.updated)...)
	m.emit(ctx, &events.MeetingMembersUpdated{
		Meta:    m.meta(auth, recipients),
		Meeting: updated,
		Added:   delta.added,
		Updated: delta.updated,
		Removed: delta.removed,
	})
	return nil
}

// RemoveMeetingFromLibrary revokes the role of the library owner on the
// meeting. The caller needs rights on the library, not on the meeting.
func (m *MeetingModel) RemoveMeetingFromLibrary(ctx context.Context, auth *authz.Context, libraryOwnerId, meetingId string) error {
	if !helpers.IsValidPrincipalId(libraryOwnerId) {
		return helpers.NewValidationError(config.InvalidPrincipalId)
	}
	if !helpers.IsValidMeetingId(meetingId) {
		return helpers.NewValidationError(config.InvalidMeetingId)
	}
	if auth.IsAnonymous() {
		return helpers.NewAuthzError(config.AnonymousCannotRemove)
	}

	owner, err := m.ds.GetPrincipal(libraryOwnerId)
	if err != nil {
		return err
	}
	if owner == nil {
		return helpers.NewNotFoundError(config.PrincipalNotFound)
	}
	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return err
	}

	groupRole := ""
	if owner.IsGroup() {
		if groupRole, err = m.explicitRole(auth, owner.ID); err != nil {
			return err
		}
	}
	if !authz.CanRemoveFromLibrary(auth, principalTarget(owner), groupRole) {
		return helpers.NewAuthzError(config.NotAllowedToRemoveFromLib)
	}

	current, err := m.ds.GetAllResourceMembers(meeting.ID)
	if err != nil {
		return err
	}
	if _, ok := current[owner.ID]; !ok {
		return helpers.NewBusinessRuleError(config.MeetingNotInLibrary)
	}
	delta := computeMembershipDelta(current, map[string]RoleChange{owner.ID: RoleRemove})
	if countManagers(delta.result) == 0 {
		return helpers.NewBusinessRuleError(config.NoManagersLeft)
	}

	if err = m.ds.RemoveRole(meeting.ID, owner.ID); err != nil {
		return err
	}
	m.removeFromLibraries(meeting.ID, []string{owner.ID})

	m.emit(ctx, &events.MeetingMembersUpdated{
		Meta:    m.meta(auth, []string{owner.ID}),
		Meeting: meeting,
		Added:   map[string]string{},
		Updated: map[string]string{},
		Removed: delta.removed,
	})
	return nil
}
