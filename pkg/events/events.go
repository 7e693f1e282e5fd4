package events

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
)

const (
	CreatedMeeting        = "CREATED_MEETING"
	UpdatedMeeting        = "UPDATED_MEETING"
	DeletedMeeting        = "DELETED_MEETING"
	GetMeetingLibrary     = "GET_MEETING_LIBRARY"
	GetMeetingProfile     = "GET_MEETING_PROFILE"
	UpdatedMeetingMembers = "UPDATED_MEETING_MEMBERS"
	CreatedMeetingMessage = "CREATED_MEETING_MESSAGE"
	DeletedMeetingMessage = "DELETED_MEETING_MESSAGE"
	StartedMeeting        = "STARTED_MEETING"
	MeetupRecordingReady  = "MEETUP_RECORDING_READY"
)

// Meta is carried by every event. Recipients lists the principals whose
// activity streams should learn about the event.
type Meta struct {
	ActorId     string   `json:"actorId,omitempty"`
	TenantAlias string   `json:"tenantAlias"`
	Time        int64    `json:"time"`
	Recipients  []string `json:"recipients,omitempty"`
}

type Event interface {
	Name() string
	Metadata() *Meta
}

// Emitter publishes events. Emission is best effort; callers log failures
// and carry on.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// Handler receives the envelope of every event on the bus.
type Handler func(env *Envelope)

// Bus is an Emitter that also lets collaborators listen to the events.
type Bus interface {
	Emitter
	Subscribe(h Handler) (unsubscribe func(), err error)
}

// Envelope is the wire form of an event.
type Envelope struct {
	Name    string          `json:"name"`
	Meta    *Meta           `json:"meta"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(e Event) (*Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Name:    e.Name(),
		Meta:    e.Metadata(),
		Payload: payload,
	}, nil
}

// Decode unmarshals the payload into out.
func (e *Envelope) Decode(out interface{}) error {
	return json.Unmarshal(e.Payload, out)
}

type MeetingCreated struct {
	Meta    *Meta             `json:"-"`
	Meeting *dbmodels.Meeting `json:"meeting"`
	// Members maps principal id to role, the creator included.
	Members map[string]string `json:"members"`
}

func (e *MeetingCreated) Name() string    { return CreatedMeeting }
func (e *MeetingCreated) Metadata() *Meta { return e.Meta }

type MeetingUpdated struct {
	Meta       *Meta             `json:"-"`
	Meeting    *dbmodels.Meeting `json:"meeting"`
	OldMeeting *dbmodels.Meeting `json:"oldMeeting"`
}

func (e *MeetingUpdated) Name() string    { return UpdatedMeeting }
func (e *MeetingUpdated) Metadata() *Meta { return e.Meta }

type MeetingDeleted struct {
	Meta      *Meta             `json:"-"`
	Meeting   *dbmodels.Meeting `json:"meeting"`
	MemberIds []string          `json:"memberIds"`
}

func (e *MeetingDeleted) Name() string    { return DeletedMeeting }
func (e *MeetingDeleted) Metadata() *Meta { return e.Meta }

type MeetingLibraryRead struct {
	Meta        *Meta  `json:"-"`
	PrincipalId string `json:"principalId"`
	Start       string `json:"start,omitempty"`
	Limit       int    `json:"limit"`
}

func (e *MeetingLibraryRead) Name() string    { return GetMeetingLibrary }
func (e *MeetingLibraryRead) Metadata() *Meta { return e.Meta }

type MeetingProfileRead struct {
	Meta    *Meta             `json:"-"`
	Meeting *dbmodels.Meeting `json:"meeting"`
}

func (e *MeetingProfileRead) Name() string    { return GetMeetingProfile }
func (e *MeetingProfileRead) Metadata() *Meta { return e.Meta }

// MeetingMembersUpdated lists the membership delta. Added and Updated map
// principal id to the new role.
type MeetingMembersUpdated struct {
	Meta    *Meta             `json:"-"`
	Meeting *dbmodels.Meeting `json:"meeting"`
	Added   map[string]string `json:"added"`
	Updated map[string]string `json:"updated"`
	Removed []string          `json:"removed"`
}

func (e *MeetingMembersUpdated) Name() string    { return UpdatedMeetingMembers }
func (e *MeetingMembersUpdated) Metadata() *Meta { return e.Meta }

type MeetingMessageCreated struct {
	Meta    *Meta                 `json:"-"`
	Meeting *dbmodels.Meeting     `json:"meeting"`
	Message *redisservice.Message `json:"message"`
}

func (e *MeetingMessageCreated) Name() string    { return CreatedMeetingMessage }
func (e *MeetingMessageCreated) Metadata() *Meta { return e.Meta }

// MeetingMessageDeleted carries the tombstone when the message was kept
// for its replies and nil otherwise.
type MeetingMessageDeleted struct {
	Meta      *Meta                 `json:"-"`
	Meeting   *dbmodels.Meeting     `json:"meeting"`
	Message   *redisservice.Message `json:"message"`
	Tombstone *redisservice.Message `json:"tombstone,omitempty"`
}

func (e *MeetingMessageDeleted) Name() string    { return DeletedMeetingMessage }
func (e *MeetingMessageDeleted) Metadata() *Meta { return e.Meta }

type MeetingStarted struct {
	Meta         *Meta  `json:"-"`
	ConferenceId string `json:"conferenceId"`
	MeetingID    string `json:"meetingID"`
	IsMeetup     bool   `json:"isMeetup"`
}

func (e *MeetingStarted) Name() string    { return StartedMeeting }
func (e *MeetingStarted) Metadata() *Meta { return e.Meta }

type MeetupRecordingIsReady struct {
	Meta     *Meta  `json:"-"`
	GroupId  string `json:"groupId"`
	RecordId string `json:"recordId"`
}

func (e *MeetupRecordingIsReady) Name() string    { return MeetupRecordingReady }
func (e *MeetupRecordingIsReady) Metadata() *Meta { return e.Meta }
