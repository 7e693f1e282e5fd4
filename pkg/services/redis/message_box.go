package redisservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	messageBoxThreadsKey  = Prefix + "messagebox:%s:threads"
	messageBoxMessagesKey = Prefix + "messagebox:%s:messages"
)

// ErrReplyParentNotFound is returned when replying to a message that does
// not exist.
var ErrReplyParentNotFound = errors.New("reply parent not found")

// Message is one entry of a message box. Thread keys sort so that a reverse
// lexicographic scan lists the newest threads first, each followed by its
// replies.
type Message struct {
	Id           string `json:"id"`
	MessageBoxId string `json:"messageBoxId"`
	ThreadKey    string `json:"threadKey"`
	Body         string `json:"body,omitempty"`
	CreatedBy    string `json:"createdBy,omitempty"`
	Created      int64  `json:"created"`
	Level        int    `json:"level"`
	ReplyTo      int64  `json:"replyTo,omitempty"`
	Deleted      bool   `json:"deleted,omitempty"`
}

func messageId(boxId string, created int64) string {
	return fmt.Sprintf("%s#%d", boxId, created)
}

// threadPrefix strips the terminating '|' of a thread key.
func threadPrefix(threadKey string) string {
	return strings.TrimSuffix(threadKey, "|")
}

func createdFromThreadKey(threadKey string) string {
	p := threadPrefix(threadKey)
	if i := strings.LastIndex(p, "#"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// CreateMessage stores a message. created is bumped until it is unique
// within the box. replyTo is the created timestamp of the parent or 0.
func (s *RedisService) CreateMessage(ctx context.Context, boxId, createdBy, body string, replyTo int64, created int64) (*Message, error) {
	var parent *Message
	if replyTo != 0 {
		var err error
		parent, err = s.GetMessage(ctx, boxId, replyTo)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrReplyParentNotFound
		}
	}

	msgKey := fmt.Sprintf(messageBoxMessagesKey, boxId)
	msg := &Message{
		MessageBoxId: boxId,
		Body:         body,
		CreatedBy:    createdBy,
	}
	if parent != nil {
		msg.Level = parent.Level + 1
		msg.ReplyTo = parent.Created
	}

	for {
		msg.Id = messageId(boxId, created)
		msg.Created = created
		msg.ThreadKey = fmt.Sprintf("%d|", created)
		if parent != nil {
			msg.ThreadKey = fmt.Sprintf("%s#%d|", threadPrefix(parent.ThreadKey), created)
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}

		ok, err := s.rc.HSetNX(ctx, msgKey, strconv.FormatInt(created, 10), data).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		created++
	}

	err := s.rc.ZAdd(ctx, fmt.Sprintf(messageBoxThreadsKey, boxId), redis.Z{Score: 0, Member: msg.ThreadKey}).Err()
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// GetMessage returns nil when the message does not exist.
func (s *RedisService) GetMessage(ctx context.Context, boxId string, created int64) (*Message, error) {
	data, err := s.rc.HGet(ctx, fmt.Sprintf(messageBoxMessagesKey, boxId), strconv.FormatInt(created, 10)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}

	msg := new(Message)
	if err = json.Unmarshal([]byte(data), msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessages pages a box newest thread first. start is the thread key
// returned by the previous page and is exclusive.
func (s *RedisService) GetMessages(ctx context.Context, boxId, start string, limit int) ([]*Message, string, error) {
	upper := "+"
	if start != "" {
		upper = "(" + start
	}

	keys, err := s.rc.ZRevRangeByLex(ctx, fmt.Sprintf(messageBoxThreadsKey, boxId), &redis.ZRangeBy{
		Min:   "-",
		Max:   upper,
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(keys) > limit {
		keys = keys[:limit]
		nextToken = keys[limit-1]
	}
	if len(keys) == 0 {
		return []*Message{}, "", nil
	}

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = createdFromThreadKey(k)
	}

	values, err := s.rc.HMGet(ctx, fmt.Sprintf(messageBoxMessagesKey, boxId), fields...).Result()
	if err != nil {
		return nil, "", err
	}

	messages := make([]*Message, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			s.logger.WithField("threadKey", keys[i]).Warnln("thread key without message in box", boxId)
			continue
		}
		msg := new(Message)
		if err = json.Unmarshal([]byte(str), msg); err != nil {
			return nil, "", err
		}
		messages = append(messages, msg)
	}

	return messages, nextToken, nil
}

// HasReplies reports whether any message was posted under msg.
func (s *RedisService) HasReplies(ctx context.Context, msg *Message) (bool, error) {
	prefix := threadPrefix(msg.ThreadKey)
	// every reply key starts with "<prefix>#" and '$' sorts right after '#'
	keys, err := s.rc.ZRangeByLex(ctx, fmt.Sprintf(messageBoxThreadsKey, msg.MessageBoxId), &redis.ZRangeBy{
		Min:   "[" + prefix + "#",
		Max:   "(" + prefix + "$",
		Count: 1,
	}).Result()
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// DeleteMessage removes msg. A message that has replies is replaced by a
// tombstone that keeps the thread intact and the tombstone is returned;
// otherwise the message is removed entirely and nil is returned.
func (s *RedisService) DeleteMessage(ctx context.Context, msg *Message) (*Message, error) {
	hasReplies, err := s.HasReplies(ctx, msg)
	if err != nil {
		return nil, err
	}

	msgKey := fmt.Sprintf(messageBoxMessagesKey, msg.MessageBoxId)
	field := strconv.FormatInt(msg.Created, 10)

	if hasReplies {
		tombstone := &Message{
			Id:           msg.Id,
			MessageBoxId: msg.MessageBoxId,
			ThreadKey:    msg.ThreadKey,
			Created:      msg.Created,
			Level:        msg.Level,
			ReplyTo:      msg.ReplyTo,
			Deleted:      true,
		}
		data, err := json.Marshal(tombstone)
		if err != nil {
			return nil, err
		}
		if err = s.rc.HSet(ctx, msgKey, field, data).Err(); err != nil {
			return nil, err
		}
		return tombstone, nil
	}

	pipe := s.rc.TxPipeline()
	pipe.ZRem(ctx, fmt.Sprintf(messageBoxThreadsKey, msg.MessageBoxId), msg.ThreadKey)
	pipe.HDel(ctx, msgKey, field)
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

// DeleteMessageBox drops every message of a box.
func (s *RedisService) DeleteMessageBox(ctx context.Context, boxId string) error {
	return s.rc.Del(ctx, fmt.Sprintf(messageBoxThreadsKey, boxId), fmt.Sprintf(messageBoxMessagesKey, boxId)).Err()
}
