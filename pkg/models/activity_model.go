package models

import (
	"context"
	"strconv"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

const (
	VerbCreate         = "create"
	VerbUpdate         = "update"
	VerbShare          = "share"
	VerbPost           = "post"
	VerbStart          = "start"
	VerbRecordingReady = "recording-ready"
)

// ActivityModel turns meeting events into entries of the recipients'
// activity streams.
type ActivityModel struct {
	rs          *redisservice.RedisService
	bus         events.Bus
	logger      *logrus.Entry
	unsubscribe func()
}

func NewActivityModel(rs *redisservice.RedisService, bus events.Bus, logger *logrus.Logger) *ActivityModel {
	return &ActivityModel{
		rs:     rs,
		bus:    bus,
		logger: logger.WithField("model", "activity"),
	}
}

// Start subscribes to the event bus.
func (a *ActivityModel) Start() error {
	unsubscribe, err := a.bus.Subscribe(a.handle)
	if err != nil {
		return err
	}
	a.unsubscribe = unsubscribe
	return nil
}

func (a *ActivityModel) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

func (a *ActivityModel) handle(env *events.Envelope) {
	if env.Meta == nil || len(env.Meta.Recipients) == 0 {
		return
	}

	activity, err := toActivity(env)
	if err != nil {
		a.logger.WithError(err).WithField("event", env.Name).Warnln("could not decode event payload")
		return
	}
	if activity == nil {
		return
	}

	ctx := context.Background()
	for _, principalId := range env.Meta.Recipients {
		if err := a.rs.AddActivity(ctx, principalId, activity); err != nil {
			a.logger.WithError(err).WithFields(logrus.Fields{
				"event":       env.Name,
				"principalId": principalId,
			}).Errorln("failed to record activity")
		}
	}
}

// toActivity returns nil for events that are not shown in activity streams.
func toActivity(env *events.Envelope) (*redisservice.Activity, error) {
	activity := &redisservice.Activity{
		ActorId:   env.Meta.ActorId,
		Published: env.Meta.Time,
	}

	switch env.Name {
	case events.CreatedMeeting:
		e := new(events.MeetingCreated)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		activity.Verb = VerbCreate
		activity.ObjectId, activity.ObjectType = e.Meeting.ID, "meeting"
	case events.UpdatedMeeting:
		e := new(events.MeetingUpdated)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		activity.Verb = VerbUpdate
		activity.ObjectId, activity.ObjectType = e.Meeting.ID, "meeting"
	case events.UpdatedMeetingMembers:
		e := new(events.MeetingMembersUpdated)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		if len(e.Added) == 0 {
			return nil, nil
		}
		activity.Verb = VerbShare
		activity.ObjectId, activity.ObjectType = e.Meeting.ID, "meeting"
	case events.CreatedMeetingMessage:
		e := new(events.MeetingMessageCreated)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		activity.Verb = VerbPost
		activity.ObjectId, activity.ObjectType = strconv.FormatInt(e.Message.Created, 10), "message"
		activity.TargetId = e.Meeting.ID
	case events.StartedMeeting:
		e := new(events.MeetingStarted)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		activity.Verb = VerbStart
		activity.ObjectId, activity.ObjectType = e.ConferenceId, "meeting"
		if e.IsMeetup {
			activity.ObjectType = "meetup"
		}
	case events.MeetupRecordingReady:
		e := new(events.MeetupRecordingIsReady)
		if err := env.Decode(e); err != nil {
			return nil, err
		}
		activity.Verb = VerbRecordingReady
		activity.ObjectId, activity.ObjectType = e.RecordId, "recording"
		activity.TargetId = e.GroupId
	default:
		return nil, nil
	}
	return activity, nil
}

// GetActivities returns the newest entries of the caller's stream.
func (a *ActivityModel) GetActivities(ctx context.Context, auth *authz.Context, limit int) ([]*redisservice.Activity, error) {
	if auth.IsAnonymous() {
		return nil, helpers.NewAuthzError(config.InvalidAccessToken)
	}
	if limit < 0 {
		return nil, helpers.NewValidationError(config.InvalidLimit)
	}
	return a.rs.GetActivities(ctx, auth.UserId(), limit)
}
