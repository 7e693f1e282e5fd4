package models

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	"github.com/sirupsen/logrus"
)

var errConferenceNotRunning = errors.New("conference is not running yet")

// startMeetingPoll watches a freshly created conference until BBB reports
// it running and then emits STARTED_MEETING. One poller runs per
// conference; when the retries run out it gives up silently.
func (b *BBBModel) startMeetingPoll(cnf *config.BBBConfig, conference *bbbservice.Conference, tenantAlias, actorId string) {
	b.polls.Add(1)
	go func() {
		defer b.polls.Done()
		ctx := context.Background()
		log := b.logger.WithFields(logrus.Fields{
			"conferenceId": conference.Id,
			"method":       "startMeetingPoll",
		})

		acquired, lockValue, err := b.rs.LockMeetingStartPoll(ctx, conference.Id, config.MeetingStartPollLockTTL)
		if err != nil {
			log.WithError(err).Errorln("failed to acquire poll lock")
			return
		}
		if !acquired {
			log.Debugln("another poller is already watching this conference")
			return
		}
		defer func() {
			if err := b.rs.UnlockMeetingStartPoll(ctx, conference.Id, lockValue); err != nil {
				log.WithError(err).Warnln("failed to release poll lock")
			}
		}()

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = b.pollInterval
		bo.Multiplier = 2
		bo.RandomizationFactor = 0
		bo.MaxInterval = b.pollInterval << config.MeetingStartPollMaxRetries
		bo.MaxElapsedTime = 0

		var info map[string]interface{}
		err = backoff.Retry(func() error {
			res, err := b.client.GetMeetingInfo(ctx, cnf, conference.Id)
			if err != nil {
				return err
			}
			if bbbservice.Str(res, "running") != "true" {
				return errConferenceNotRunning
			}
			info = res
			return nil
		}, backoff.WithMaxRetries(bo, config.MeetingStartPollMaxRetries))
		if err != nil {
			log.WithError(err).Debugln("gave up waiting for the conference to start")
			return
		}

		members, err := b.ds.GetAllResourceMembers(conference.Id)
		if err != nil {
			log.WithError(err).Warnln("failed to list members to notify")
		}

		b.emit(ctx, &events.MeetingStarted{
			Meta:         b.meta(tenantAlias, actorId, mapKeys(members)),
			ConferenceId: conference.Id,
			MeetingID:    bbbservice.Str(info, "meetingID"),
			IsMeetup:     conference.IsMeetup,
		})
	}()
}
