package models

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

type MeetingModel struct {
	app     *config.AppConfig
	tenants config.TenantConfigProvider
	ds      *dbservice.DatabaseService
	rs      *redisservice.RedisService
	emitter events.Emitter
	logger  *logrus.Entry

	pool    *workerpool.WorkerPool
	pending sync.WaitGroup
	now     func() time.Time
}

func NewMeetingModel(app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, emitter events.Emitter, logger *logrus.Logger) *MeetingModel {
	return &MeetingModel{
		app:     app,
		tenants: app,
		ds:      ds,
		rs:      rs,
		emitter: emitter,
		logger:  logger.WithField("model", "meeting"),
		pool:    workerpool.New(config.LibraryPropagationPool),
		now:     time.Now,
	}
}

// WaitForPropagation blocks until every queued library update has run.
func (m *MeetingModel) WaitForPropagation() {
	m.pending.Wait()
}

// Shutdown drains the library propagation queue.
func (m *MeetingModel) Shutdown() {
	m.pool.StopWait()
}

func (m *MeetingModel) nowMs() int64 {
	return m.now().UnixMilli()
}

func (m *MeetingModel) getMeeting(meetingId string) (*dbmodels.Meeting, error) {
	meeting, err := m.ds.GetMeeting(meetingId)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, helpers.NewNotFoundError(config.MeetingNotFound)
	}
	return meeting, nil
}

func meetingTarget(meeting *dbmodels.Meeting) authz.Target {
	return authz.Target{
		Id:          meeting.ID,
		TenantAlias: meeting.TenantAlias,
		Visibility:  meeting.Visibility,
	}
}

func principalTarget(p *dbmodels.Principal) authz.Target {
	return authz.Target{
		Id:          p.ID,
		TenantAlias: p.TenantAlias,
		Visibility:  p.Visibility,
	}
}

// explicitRole is the role the caller holds on resourceId directly or
// through a group.
func (m *MeetingModel) explicitRole(auth *authz.Context, resourceId string) (string, error) {
	if auth.IsAnonymous() {
		return "", nil
	}
	return m.ds.GetEffectiveRole(auth.UserId(), resourceId)
}

func (m *MeetingModel) access(auth *authz.Context, meeting *dbmodels.Meeting) (*authz.Access, error) {
	role, err := m.explicitRole(auth, meeting.ID)
	if err != nil {
		return nil, err
	}
	return authz.ResolveEffectiveMeetingAccess(auth, m.tenants.GetTenant(meeting.TenantAlias), meetingTarget(meeting), role), nil
}

// checkNewMembers makes sure every principal exists and may be added to
// the meeting.
func (m *MeetingModel) checkNewMembers(auth *authz.Context, meetingTenant *config.TenantInfo, principalIds []string) error {
	if len(principalIds) == 0 {
		return nil
	}

	principals, err := m.ds.GetPrincipalsByIds(principalIds)
	if err != nil {
		return err
	}
	for _, id := range principalIds {
		p, ok := principals[id]
		if !ok {
			return helpers.NewNotFoundError(config.PrincipalNotFound)
		}
		if !authz.CanAddMember(auth, meetingTenant, m.tenants.GetTenant(p.TenantAlias), principalTarget(p)) {
			return helpers.NewBusinessRuleError(config.TargetNotInteractable)
		}
	}
	return nil
}

func (m *MeetingModel) meta(auth *authz.Context, recipients []string) *events.Meta {
	meta := &events.Meta{
		ActorId:    auth.UserId(),
		Time:       m.nowMs(),
		Recipients: recipients,
	}
	if auth != nil && auth.Tenant != nil {
		meta.TenantAlias = auth.Tenant.Alias
	}
	return meta
}

func (m *MeetingModel) emit(ctx context.Context, e events.Event) {
	if err := m.emitter.Emit(ctx, e); err != nil {
		m.logger.WithError(err).WithField("event", e.Name()).Errorln("failed to emit event")
	}
}

func mapKeys(in map[string]string) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	return out
}

func countManagers(members map[string]string) int {
	n := 0
	for _, role := range members {
		if role == config.RoleManager {
			n++
		}
	}
	return n
}

func pageLimit(limit, def, upper int) int {
	if limit <= 0 {
		return def
	}
	if limit > upper {
		return upper
	}
	return limit
}
