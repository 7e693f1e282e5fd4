package models

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
)

var messagePolicy = bluemonday.UGCPolicy()

// CreateMessage posts a message, or a reply when ReplyTo is set, on a
// meeting.
func (m *MeetingModel) CreateMessage(ctx context.Context, auth *authz.Context, r *CreateMessageReq) (*redisservice.Message, error) {
	if err := validateReq(r); err != nil {
		return nil, err
	}
	if auth.IsAnonymous() {
		return nil, helpers.NewAuthzError(config.AnonymousCannotPost)
	}

	body := strings.TrimSpace(messagePolicy.Sanitize(r.Body))
	if body == "" {
		return nil, helpers.NewValidationError(config.MessageBodyRequired)
	}

	meeting, err := m.getMeeting(r.MeetingId)
	if err != nil {
		return nil, err
	}
	access, err := m.access(auth, meeting)
	if err != nil {
		return nil, err
	}
	if !access.CanJoin {
		return nil, helpers.NewAuthzError(config.NotAllowedToPost)
	}

	msg, err := m.rs.CreateMessage(ctx, meeting.ID, auth.UserId(), body, r.ReplyTo, m.nowMs())
	if errors.Is(err, redisservice.ErrReplyParentNotFound) {
		return nil, helpers.NewValidationError(config.ReplyParentNotFound)
	}
	if err != nil {
		return nil, err
	}

	members, err := m.ds.GetAllResourceMembers(meeting.ID)
	if err != nil {
		m.logger.WithError(err).WithField("meetingId", meeting.ID).Errorln("failed to list members after posting a message")
	}
	memberIds := mapKeys(members)
	updated := m.touch(meeting, memberIds)

	m.emit(ctx, &events.MeetingMessageCreated{
		Meta:    m.meta(auth, memberIds),
		Meeting: updated,
		Message: msg,
	})
	return msg, nil
}

// DeleteMessage removes a message. Messages with replies are replaced by a
// tombstone which is returned; a nil message means it was removed entirely.
func (m *MeetingModel) DeleteMessage(ctx context.Context, auth *authz.Context, meetingId string, created int64) (*redisservice.Message, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, helpers.NewValidationError(config.InvalidMeetingId)
	}
	if created <= 0 {
		return nil, helpers.NewValidationError(config.InvalidMessageCreated)
	}
	if auth.IsAnonymous() {
		return nil, helpers.NewAuthzError(config.AnonymousCannotDelete)
	}

	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return nil, err
	}
	msg, err := m.rs.GetMessage(ctx, meeting.ID, created)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, helpers.NewNotFoundError(config.MessageNotFound)
	}

	role, err := m.explicitRole(auth, meeting.ID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDeleteMessage(auth, m.tenants.GetTenant(meeting.TenantAlias), meetingTarget(meeting), role, msg.CreatedBy) {
		return nil, helpers.NewAuthzError(config.NotAllowedToDeleteMessage)
	}

	tombstone, err := m.rs.DeleteMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	m.emit(ctx, &events.MeetingMessageDeleted{
		Meta:      m.meta(auth, nil),
		Meeting:   meeting,
		Message:   msg,
		Tombstone: tombstone,
	})
	return tombstone, nil
}

// GetMessages pages the messages of a meeting, newest thread first.
func (m *MeetingModel) GetMessages(ctx context.Context, auth *authz.Context, meetingId string, r *PageReq) (*MeetingMessages, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, helpers.NewValidationError(config.InvalidMeetingId)
	}
	if err := validateReq(r); err != nil {
		return nil, err
	}
	limit := pageLimit(r.Limit, config.DefaultLibraryLimit, config.MaxLibraryLimit)

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

	messages, nextToken, err := m.rs.GetMessages(ctx, meeting.ID, r.Start, limit)
	if err != nil {
		return nil, err
	}

	return &MeetingMessages{
		Results:   messages,
		NextToken: nextToken,
	}, nil
}
