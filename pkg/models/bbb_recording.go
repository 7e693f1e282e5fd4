package models

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
)

// GetRecordings lists the BBB recordings of a meeting.
func (b *BBBModel) GetRecordings(ctx context.Context, auth *authz.Context, meetingId string) (map[string]interface{}, error) {
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

	res, err := b.client.Call(ctx, b.client.GetRecordingsURL(cnf, meeting.ID))
	if err != nil {
		return nil, b.upstreamError(err)
	}
	return res, nil
}

func (b *BBBModel) DeleteRecording(ctx context.Context, auth *authz.Context, meetingId, recordingId string) (map[string]interface{}, error) {
	cnf, err := b.manageRecording(ctx, auth, meetingId, recordingId)
	if err != nil {
		return nil, err
	}

	res, err := b.client.Call(ctx, b.client.DeleteRecordingsURL(cnf, recordingId))
	if err != nil {
		return nil, b.upstreamError(err)
	}
	return res, nil
}

// UpdateRecording publishes or unpublishes a recording.
func (b *BBBModel) UpdateRecording(ctx context.Context, auth *authz.Context, meetingId, recordingId string, publish bool) (map[string]interface{}, error) {
	cnf, err := b.manageRecording(ctx, auth, meetingId, recordingId)
	if err != nil {
		return nil, err
	}

	res, err := b.client.Call(ctx, b.client.UpdateRecordingsURL(cnf, recordingId, publish))
	if err != nil {
		return nil, b.upstreamError(err)
	}
	return res, nil
}

// manageRecording checks the caller manages the meeting and that the
// recording was made in that meeting's conference.
func (b *BBBModel) manageRecording(ctx context.Context, auth *authz.Context, meetingId, recordingId string) (*config.BBBConfig, error) {
	if recordingId == "" {
		return nil, helpers.NewValidationError(config.InvalidRecordingId)
	}

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

	found, err := b.client.HasRecording(ctx, cnf, meeting.ID, recordingId)
	if err != nil {
		return nil, b.upstreamError(err)
	}
	if !found {
		return nil, helpers.NewNotFoundError(config.RecordingNotFound)
	}
	return cnf, nil
}
