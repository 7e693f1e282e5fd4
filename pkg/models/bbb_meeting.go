package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
)

type JoinResponse struct {
	URL string `json:"url"`
}

// JoinMeeting returns the url the caller opens to enter the meeting's
// conference. The first join starts the conference.
func (b *BBBModel) JoinMeeting(ctx context.Context, auth *authz.Context, meetingId string) (*JoinResponse, error) {
	meeting, access, err := b.meetingAccess(auth, meetingId)
	if err != nil {
		return nil, err
	}
	if !access.CanJoin {
		return nil, helpers.NewAuthzError(config.NotAllowedToJoin)
	}

	cnf, err := b.bbbConfig(meeting.TenantAlias)
	if err != nil {
		return nil, err
	}

	conference := &bbbservice.Conference{
		Id:            meeting.ID,
		DisplayName:   meeting.DisplayName,
		ProfilePath:   meeting.ProfilePath,
		Record:        meeting.Record,
		AllModerators: meeting.AllModerators,
	}
	res, err := b.client.JoinURL(ctx, cnf, &bbbservice.JoinRequest{
		Conference: conference,
		FullName:   auth.User.DisplayName,
		IsManager:  access.CanManage,
		Protocol:   auth.Protocol,
		Host:       auth.Host,
	})
	if err != nil {
		return nil, b.upstreamError(err)
	}

	if res.Created {
		b.startMeetingPoll(cnf, conference, meeting.TenantAlias, auth.UserId())
	}

	return &JoinResponse{URL: res.URL}, nil
}

// GetMeetingInfo returns BBB's view of the meeting's conference.
func (b *BBBModel) GetMeetingInfo(ctx context.Context, auth *authz.Context, meetingId string) (map[string]interface{}, error) {
	meeting, access, err := b.meetingAccess(auth, meetingId)
	if err != nil {
		return nil, err
	}
	if !access.CanView {
		return nil, helpers.NewAuthzError(config.NotAllowedToView)
	}

	cnf, err := b.bbbConfig(meeting.TenantAlias)
	if err != nil {
		return nil, err
	}

	info, err := b.client.GetMeetingInfo(ctx, cnf, meeting.ID)
	if err != nil {
		return nil, b.upstreamError(err)
	}
	return info, nil
}

// EndMeeting ends the running conference of a meeting. A conference that
// is not running is reported, not treated as an error.
func (b *BBBModel) EndMeeting(ctx context.Context, auth *authz.Context, meetingId string) (*bbbservice.EndMeetingResult, error) {
	meeting, access, err := b.meetingAccess(auth, meetingId)
	if err != nil {
		return nil, err
	}
	if !access.CanManage {
		return nil, helpers.NewAuthzError(config.NotAllowedToManage)
	}

	cnf, err := b.bbbConfig(meeting.TenantAlias)
	if err != nil {
		return nil, err
	}
	return b.endConference(ctx, cnf, meeting.ID)
}

func (b *BBBModel) endConference(ctx context.Context, cnf *config.BBBConfig, id string) (*bbbservice.EndMeetingResult, error) {
	res, err := b.client.GetEndMeetingURL(ctx, cnf, id)
	if err != nil {
		return nil, b.upstreamError(err)
	}
	if res.URL == "" {
		return res, nil
	}

	info, err := b.client.Call(ctx, res.URL)
	if err != nil {
		return nil, b.upstreamError(err)
	}
	res.Info = info
	return res, nil
}
