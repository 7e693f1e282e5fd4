package models

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
)

const meetupLayout = "bbb.layout.name.videochat"

var (
	defaultLayoutAttr = regexp.MustCompile(`(<layout\b[^>]*?\bdefaultLayout=")[^"]*(")`)
	// modules whose toolbar buttons are hidden in meetups
	meetupHiddenButtons = []*regexp.Regexp{
		regexp.MustCompile(`(<module\b[^>]*?\bname="ScreenshareModule"[^>]*?\bshowButton=")[^"]*(")`),
		regexp.MustCompile(`(<module\b[^>]*?\bname="PhoneModule"[^>]*?\bshowButton=")[^"]*(")`),
		regexp.MustCompile(`(<module\b[^>]*?\bname="VideoconfModule"[^>]*?\bshowButton=")[^"]*(")`),
	}
)

// CustomizeMeetupConfigXML switches a client configuration to the meetup
// layout and hides the screen share, phone and video buttons.
func CustomizeMeetupConfigXML(configXML string) string {
	out := defaultLayoutAttr.ReplaceAllString(configXML, "${1}"+meetupLayout+"${2}")
	for _, re := range meetupHiddenButtons {
		out = re.ReplaceAllString(out, "${1}false${2}")
	}
	return out
}

// meetupGroup loads a group and the caller's role on it. Administrators of
// the group's tenant count as managers.
func (b *BBBModel) meetupGroup(auth *authz.Context, groupId string) (*dbmodels.Principal, string, error) {
	if !helpers.IsGroupId(groupId) {
		return nil, "", helpers.NewValidationError(config.InvalidPrincipalId)
	}

	group, err := b.ds.GetPrincipal(groupId)
	if err != nil {
		return nil, "", err
	}
	if group == nil {
		return nil, "", helpers.NewNotFoundError(config.GroupNotFound)
	}

	role := ""
	if !auth.IsAnonymous() {
		if role, err = b.ds.GetEffectiveRole(auth.UserId(), group.ID); err != nil {
			return nil, "", err
		}
	}
	return group, authz.EffectiveRole(auth, principalTarget(group), role), nil
}

// JoinMeetup joins the conference every group has. Group managers join as
// moderators.
func (b *BBBModel) JoinMeetup(ctx context.Context, auth *authz.Context, groupId string) (*JoinResponse, error) {
	group, role, err := b.meetupGroup(auth, groupId)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, helpers.NewAuthzError(config.NotAllowedToJoinMeetup)
	}

	cnf, err := b.bbbConfig(group.TenantAlias)
	if err != nil {
		return nil, err
	}

	conference := &bbbservice.Conference{
		Id:                group.ID,
		DisplayName:       group.DisplayName,
		ProfilePath:       helpers.ProfilePath("group", group.ID),
		IsMeetup:          true,
		RecordingReadyURL: fmt.Sprintf("%s://%s/meetup/%s/recording", auth.Protocol, auth.Host, group.ID),
	}

	req := &bbbservice.JoinRequest{
		Conference: conference,
		FullName:   auth.User.DisplayName,
		IsManager:  role == config.RoleManager,
		Protocol:   auth.Protocol,
		Host:       auth.Host,
	}
	if cnf.CustomizeMeetupLayout {
		defaultXML, err := b.client.GetDefaultConfigXML(ctx, cnf)
		if err != nil {
			b.logger.WithError(err).WithField("groupId", group.ID).Warnln("could not fetch the default config xml, joining with defaults")
		} else {
			req.ConfigXML = CustomizeMeetupConfigXML(defaultXML)
		}
	}

	res, err := b.client.JoinURL(ctx, cnf, req)
	if err != nil {
		return nil, b.upstreamError(err)
	}
	if res.Created {
		b.startMeetingPoll(cnf, conference, group.TenantAlias, auth.UserId())
	}

	return &JoinResponse{URL: res.URL}, nil
}

// CloseMeetup ends a group's conference.
func (b *BBBModel) CloseMeetup(ctx context.Context, auth *authz.Context, groupId string) (*bbbservice.EndMeetingResult, error) {
	group, role, err := b.meetupGroup(auth, groupId)
	if err != nil {
		return nil, err
	}
	if role != config.RoleManager {
		return nil, helpers.NewAuthzError(config.NotAllowedToCloseMeetup)
	}

	cnf, err := b.bbbConfig(group.TenantAlias)
	if err != nil {
		return nil, err
	}
	return b.endConference(ctx, cnf, group.ID)
}

type recordingReadyClaims struct {
	MeetingID string `json:"meeting_id"`
	RecordID  string `json:"record_id"`
}

// MeetupRecordingReady handles BBB's notification that a meetup recording
// has been processed. signedParameters is a JWT signed with the tenant
// secret.
func (b *BBBModel) MeetupRecordingReady(ctx context.Context, groupId, signedParameters string) error {
	if !helpers.IsGroupId(groupId) {
		return helpers.NewValidationError(config.InvalidPrincipalId)
	}
	if signedParameters == "" {
		return helpers.NewValidationError(config.InvalidRecordingCallback)
	}

	group, err := b.ds.GetPrincipal(groupId)
	if err != nil {
		return err
	}
	if group == nil {
		return helpers.NewNotFoundError(config.GroupNotFound)
	}
	cnf, err := b.bbbConfig(group.TenantAlias)
	if err != nil {
		return err
	}

	claims := recordingReadyClaims{}
	if err = helpers.ParseHS256(signedParameters, cnf.Secret, &claims); err != nil {
		b.logger.WithError(err).WithField("groupId", group.ID).Warnln("rejected recording notification")
		return helpers.NewAuthzError(config.InvalidRecordingCallback)
	}
	if claims.MeetingID != bbbservice.MeetingID(cnf, group.ID) || claims.RecordID == "" {
		return helpers.NewAuthzError(config.InvalidRecordingCallback)
	}

	members, err := b.ds.GetAllResourceMembers(group.ID)
	if err != nil {
		b.logger.WithError(err).WithField("groupId", group.ID).Warnln("failed to list group members to notify")
	}

	b.emit(ctx, &events.MeetupRecordingIsReady{
		Meta:     b.meta(group.TenantAlias, "", mapKeys(members)),
		GroupId:  group.ID,
		RecordId: claims.RecordID,
	})
	return nil
}
