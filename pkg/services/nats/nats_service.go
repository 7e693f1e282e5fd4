package natsservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NatsService publishes meeting events on NATS core subjects of the form
// "<subject_prefix>.<EVENT_NAME>".
type NatsService struct {
	nc     *nats.Conn
	prefix string
	logger *logrus.Entry
}

func New(app *config.AppConfig, logger *logrus.Logger) *NatsService {
	prefix := app.NatsInfo.SubjectPrefix
	if prefix == "" {
		prefix = config.DefaultEventSubjectPrefix
	}

	return &NatsService{
		nc:     app.NatsConn,
		prefix: prefix,
		logger: logger.WithField("service", "nats"),
	}
}

// EventSubject returns the subject an event is published on.
func (s *NatsService) EventSubject(name string) string {
	return fmt.Sprintf("%s.%s", s.prefix, name)
}

// WildcardSubject matches every event subject.
func (s *NatsService) WildcardSubject() string {
	return s.prefix + ".>"
}

func (s *NatsService) Emit(_ context.Context, e events.Event) error {
	env, err := events.NewEnvelope(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	subject := s.EventSubject(e.Name())
	if err = s.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	s.logger.WithField("subject", subject).Debugln("event published")
	return nil
}

// Subscribe delivers every event envelope to h. Subscribers share a queue
// group so each event is handled once across server instances. Malformed
// messages are logged and dropped.
func (s *NatsService) Subscribe(h events.Handler) (func(), error) {
	sub, err := s.nc.QueueSubscribe(s.WildcardSubject(), config.EventQueueGroup, func(msg *nats.Msg) {
		env := new(events.Envelope)
		if err := json.Unmarshal(msg.Data, env); err != nil {
			s.logger.WithError(err).WithField("subject", msg.Subject).Warnln("dropping malformed event")
			return
		}
		if env.Name == "" {
			env.Name = strings.TrimPrefix(msg.Subject, s.prefix+".")
		}
		h(env)
	})
	if err != nil {
		return nil, err
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.WithError(err).Warnln("failed to unsubscribe from events")
		}
	}, nil
}
