package redisservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	meetingStartPollLockKey = Prefix + "meetingStartPollLock-%s"
	reindexLockKey          = Prefix + "reindexLibrariesLock"
)

// unlockScript is a Lua script for atomic check-and-delete.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`

// LockMeetingStartPoll makes sure only one poller watches a conference
// start. lockValue must be handed back to UnlockMeetingStartPoll.
func (s *RedisService) LockMeetingStartPoll(ctx context.Context, meetingId string, ttl time.Duration) (acquired bool, lockValue string, err error) {
	return s.lock(ctx, fmt.Sprintf(meetingStartPollLockKey, meetingId), ttl)
}

func (s *RedisService) UnlockMeetingStartPoll(ctx context.Context, meetingId string, lockValue string) error {
	return s.unlock(ctx, fmt.Sprintf(meetingStartPollLockKey, meetingId), lockValue)
}

func (s *RedisService) IsMeetingStartPollLocked(ctx context.Context, meetingId string) (bool, error) {
	val, err := s.rc.Exists(ctx, fmt.Sprintf(meetingStartPollLockKey, meetingId)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// LockReindex guards the library reindex task against concurrent runs.
func (s *RedisService) LockReindex(ctx context.Context, ttl time.Duration) (bool, string, error) {
	return s.lock(ctx, reindexLockKey, ttl)
}

func (s *RedisService) UnlockReindex(ctx context.Context, lockValue string) error {
	return s.unlock(ctx, reindexLockKey, lockValue)
}

func (s *RedisService) lock(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	val := uuid.New().String()

	ok, err := s.rc.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("redis SetNX error for key %s: %w", key, err)
	}
	if !ok {
		return false, "", nil
	}
	return true, val, nil
}

func (s *RedisService) unlock(ctx context.Context, key, lockValue string) error {
	if lockValue == "" {
		return nil
	}

	deleted, err := s.unlockScriptExec.Eval(ctx, s.rc, []string{key}, lockValue).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis Eval error for unlock script on key %s: %w", key, err)
	}

	if deleted == 0 {
		return fmt.Errorf("could not release lock on key %s (it may have expired or been taken by another process)", key)
	}
	return nil
}
