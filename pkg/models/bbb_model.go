package models

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

// BBBModel drives conferences on the tenant's BBB server.
type BBBModel struct {
	app     *config.AppConfig
	tenants config.TenantConfigProvider
	ds      *dbservice.DatabaseService
	rs      *redisservice.RedisService
	client  *bbbservice.Client
	emitter events.Emitter
	logger  *logrus.Entry

	pollInterval time.Duration
	polls        sync.WaitGroup
	now          func() time.Time
}

func NewBBBModel(app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, client *bbbservice.Client, emitter events.Emitter, logger *logrus.Logger) *BBBModel {
	return &BBBModel{
		app:          app,
		tenants:      app,
		ds:           ds,
		rs:           rs,
		client:       client,
		emitter:      emitter,
		logger:       logger.WithField("model", "bbb"),
		pollInterval: config.MeetingStartPollInterval,
		now:          time.Now,
	}
}

// WaitForPolls blocks until every running start poll has finished.
func (b *BBBModel) WaitForPolls() {
	b.polls.Wait()
}

func (b *BBBModel) bbbConfig(tenantAlias string) (*config.BBBConfig, error) {
	cnf := b.tenants.GetBBBConfig(tenantAlias)
	if cnf == nil || !cnf.Enabled {
		return nil, helpers.NewBusinessRuleError(config.ConferencingDisabled)
	}
	return cnf, nil
}

// upstreamError maps transport failures to the error callers see. Other
// errors are returned untouched.
func (b *BBBModel) upstreamError(err error) error {
	var pe *bbbservice.ProxyError
	if errors.As(err, &pe) || errors.Is(err, bbbservice.ErrUnexpectedResponse) {
		b.logger.WithError(err).Errorln("conferencing server call failed")
		return helpers.NewUpstreamError(config.ConferencingUnavailable)
	}
	return err
}

// meetingAccess loads a meeting and the caller's permissions on it.
func (b *BBBModel) meetingAccess(auth *authz.Context, meetingId string) (*dbmodels.Meeting, *authz.Access, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, nil, helpers.NewValidationError(config.InvalidMeetingId)
	}

	meeting, err := b.ds.GetMeeting(meetingId)
	if err != nil {
		return nil, nil, err
	}
	if meeting == nil {
		return nil, nil, helpers.NewNotFoundError(config.MeetingNotFound)
	}

	role := ""
	if !auth.IsAnonymous() {
		if role, err = b.ds.GetEffectiveRole(auth.UserId(), meeting.ID); err != nil {
			return nil, nil, err
		}
	}
	access := authz.ResolveEffectiveMeetingAccess(auth, b.tenants.GetTenant(meeting.TenantAlias), meetingTarget(meeting), role)
	return meeting, access, nil
}

func (b *BBBModel) emit(ctx context.Context, e events.Event) {
	if err := b.emitter.Emit(ctx, e); err != nil {
		b.logger.WithError(err).WithField("event", e.Name()).Errorln("failed to emit event")
	}
}

func (b *BBBModel) meta(tenantAlias, actorId string, recipients []string) *events.Meta {
	return &events.Meta{
		ActorId:     actorId,
		TenantAlias: tenantAlias,
		Time:        b.now().UnixMilli(),
		Recipients:  recipients,
	}
}
