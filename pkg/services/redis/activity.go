package redisservice

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
)

const activityStreamKey = Prefix + "activity:%s"

// Activity is an entry of a principal's activity stream.
type Activity struct {
	Verb       string `json:"verb"`
	ActorId    string `json:"actorId"`
	ObjectId   string `json:"objectId"`
	ObjectType string `json:"objectType"`
	TargetId   string `json:"targetId,omitempty"`
	Published  int64  `json:"published"`
}

// AddActivity prepends an entry and keeps the newest entries only.
func (s *RedisService) AddActivity(ctx context.Context, principalId string, a *Activity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(activityStreamKey, principalId)
	pipe := s.rc.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, config.MaxActivityEntries-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisService) GetActivities(ctx context.Context, principalId string, limit int) ([]*Activity, error) {
	if limit <= 0 || limit > config.MaxActivityEntries {
		limit = config.MaxActivityEntries
	}

	values, err := s.rc.LRange(ctx, fmt.Sprintf(activityStreamKey, principalId), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Activity, 0, len(values))
	for _, v := range values {
		a := new(Activity)
		if err = json.Unmarshal([]byte(v), a); err != nil {
			s.logger.WithError(err).Warnln("skipping malformed activity entry of", principalId)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
