package events

import (
	"context"
	"testing"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	e := &MeetingMembersUpdated{
		Meta:    &Meta{ActorId: "u:camtest:nico", TenantAlias: "camtest", Time: 42, Recipients: []string{"u:camtest:simon"}},
		Meeting: &dbmodels.Meeting{ID: "m:camtest:goats", DisplayName: "Goats"},
		Added:   map[string]string{"u:camtest:simon": "member"},
	}

	env, err := NewEnvelope(e)
	require.NoError(t, err)
	assert.Equal(t, UpdatedMeetingMembers, env.Name)
	assert.Equal(t, "u:camtest:nico", env.Meta.ActorId)

	decoded := new(MeetingMembersUpdated)
	require.NoError(t, env.Decode(decoded))
	assert.Equal(t, "Goats", decoded.Meeting.DisplayName)
	assert.Equal(t, "member", decoded.Added["u:camtest:simon"])
	// meta travels next to the payload, not inside it
	assert.Nil(t, decoded.Meta)
}

func TestMemoryBus(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var received []string
	unsubscribe, err := bus.Subscribe(func(env *Envelope) {
		received = append(received, env.Name)
	})
	require.NoError(t, err)

	require.NoError(t, bus.Emit(ctx, &MeetingStarted{Meta: &Meta{TenantAlias: "camtest"}, ConferenceId: "m:camtest:a"}))
	require.NoError(t, bus.Emit(ctx, &MeetingDeleted{Meta: &Meta{TenantAlias: "camtest"}}))

	unsubscribe()
	require.NoError(t, bus.Emit(ctx, &MeetingStarted{Meta: &Meta{TenantAlias: "camtest"}, ConferenceId: "m:camtest:b"}))

	assert.Equal(t, []string{StartedMeeting, DeletedMeeting}, received)
	assert.Equal(t, []string{StartedMeeting, DeletedMeeting, StartedMeeting}, bus.Names())

	last, ok := bus.Last(StartedMeeting).(*MeetingStarted)
	require.True(t, ok)
	assert.Equal(t, "m:camtest:b", last.ConferenceId)
	assert.Nil(t, bus.Last(CreatedMeeting))

	bus.Reset()
	assert.Empty(t, bus.Events())
}
