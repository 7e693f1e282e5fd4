package routers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertError(t *testing.T, status int, body []byte, code int, msg string) {
	t.Helper()
	assert.Equal(t, code, status, string(body))
	apiErr := new(helpers.APIError)
	decode(t, body, apiErr)
	assert.Equal(t, code, apiErr.Code)
	assert.Equal(t, msg, apiErr.Msg)
}

func createMeeting(t *testing.T, s *testServer, token string, members map[string]string) *dbmodels.Meeting {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/meeting/create", token, map[string]interface{}{
		"displayName": "Goats",
		"description": "Talking about goats",
		"members":     members,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	meeting := new(dbmodels.Meeting)
	decode(t, body, meeting)
	return meeting
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/healthCheck", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Healthy", string(body))

	s.mr.Close()
	status, body = s.do(t, http.MethodGet, "/healthCheck", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "redis unavailable", string(body))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", string(body))
}

func TestHostPlatformAuth(t *testing.T) {
	s := newTestServer(t)
	payload := []byte(`{"userId":"u:camtest:nico"}`)

	req := httptest.NewRequest(http.MethodPost, "http://"+camHost+"/auth/token", strings.NewReader(string(payload)))
	status, body := s.send(t, req)
	assertError(t, status, body, http.StatusUnauthorized, config.InvalidApiKey)

	req = httptest.NewRequest(http.MethodPost, "http://"+camHost+"/auth/token", strings.NewReader(string(payload)))
	req.Header.Set("API-KEY", apiKey)
	status, body = s.send(t, req)
	assertError(t, status, body, http.StatusUnauthorized, config.HashSignatureRequired)

	req = httptest.NewRequest(http.MethodPost, "http://"+camHost+"/auth/token", strings.NewReader(string(payload)))
	req.Header.Set("API-KEY", apiKey)
	req.Header.Set("HASH-SIGNATURE", "deadbeef")
	status, body = s.send(t, req)
	assertError(t, status, body, http.StatusUnauthorized, config.HashSignatureVerifyFailed)

	status, body = s.doSigned(t, "/auth/token", map[string]interface{}{"userId": nico})
	require.Equal(t, http.StatusOK, status, string(body))
	token := new(models.AccessToken)
	decode(t, body, token)
	assert.NotEmpty(t, token.Token)

	// the issued token is accepted by the api
	createMeeting(t, s, token.Token, nil)

	status, body = s.doSigned(t, "/auth/token", map[string]interface{}{"userId": "u:camtest:ghost"})
	assertError(t, status, body, http.StatusNotFound, config.PrincipalNotFound)
}

func TestHostPlatformPrincipals(t *testing.T) {
	s := newTestServer(t)

	status, body := s.doSigned(t, "/auth/principal", map[string]interface{}{
		"id":          "u:camtest:newbie",
		"displayName": "Newbie",
		"visibility":  config.VisibilityLoggedIn,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	p := new(dbmodels.BasicProfile)
	decode(t, body, p)
	assert.Equal(t, "camtest", p.TenantAlias)

	status, body = s.doSigned(t, "/auth/principal", map[string]interface{}{
		"id":          "u:camtest:newbie",
		"displayName": "Newbie",
	})
	assertError(t, status, body, http.StatusBadRequest, config.InvalidVisibility)

	status, body = s.doSigned(t, "/auth/group/members", map[string]interface{}{
		"groupId": oaeTeam,
		"changes": map[string]interface{}{
			bert:  config.RoleManager,
			simon: false,
		},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	members, err := s.ds.GetAllResourceMembers(oaeTeam)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{bert: config.RoleManager}, members)
}

func TestBuildContext(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/meeting/create", "", map[string]interface{}{
		"displayName": "Goats",
		"description": "Talking about goats",
	})
	assertError(t, status, body, http.StatusUnauthorized, config.AnonymousCannotCreate)

	status, body = s.do(t, http.MethodPost, "/api/meeting/create", "garbage", map[string]interface{}{
		"displayName": "Goats",
		"description": "Talking about goats",
	})
	assertError(t, status, body, http.StatusUnauthorized, config.InvalidAccessToken)

	// anonymous users may still read public meetings
	meeting := createMeeting(t, s, s.token(t, nico), nil)
	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	profile := make(map[string]interface{})
	decode(t, body, &profile)
	assert.Equal(t, false, profile["isManager"])
	assert.Nil(t, profile["signature"])
}

func TestMeetingRoutes(t *testing.T) {
	s := newTestServer(t)
	nicoToken := s.token(t, nico)
	bertToken := s.token(t, bert)

	meeting := createMeeting(t, s, nicoToken, map[string]string{bert: config.RoleMember})
	assert.Equal(t, "camtest", meeting.TenantAlias)
	assert.Equal(t, config.VisibilityPublic, meeting.Visibility)

	status, body := s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID, nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	profile := new(models.FullMeetingProfile)
	decode(t, body, profile)
	assert.True(t, profile.IsManager)
	assert.True(t, profile.CanJoin)
	require.NotNil(t, profile.Signature)

	// the profile signature can be checked by the host platform
	status, body = s.doSigned(t, "/auth/signature/verify", map[string]interface{}{
		"signature":  profile.Signature.Signature,
		"resourceId": meeting.ID,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	verified := make(map[string]string)
	decode(t, body, &verified)
	assert.Equal(t, nico, verified["userId"])

	status, body = s.do(t, http.MethodPost, "/api/meeting/"+meeting.ID, nicoToken, map[string]interface{}{
		"displayName": "Sheep",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	updated := new(dbmodels.Meeting)
	decode(t, body, updated)
	assert.Equal(t, "Sheep", updated.DisplayName)
	s.meetings.WaitForPropagation()

	status, body = s.do(t, http.MethodPost, "/api/meeting/"+meeting.ID, bertToken, map[string]interface{}{
		"displayName": "Cows",
	})
	assertError(t, status, body, http.StatusUnauthorized, config.NotAllowedToManage)

	status, body = s.do(t, http.MethodPost, "/api/meeting/"+meeting.ID+"/share", bertToken, map[string]interface{}{
		"members": []string{simon},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodPost, "/api/meeting/"+meeting.ID+"/members", nicoToken, map[string]interface{}{
		bert:  config.RoleManager,
		simon: false,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/members?limit=10", bertToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	members := new(models.MeetingMembers)
	decode(t, body, members)
	roles := make(map[string]string)
	for _, m := range members.Results {
		roles[m.Profile.Id] = m.Role
	}
	assert.Equal(t, map[string]string{nico: config.RoleManager, bert: config.RoleManager}, roles)

	status, body = s.do(t, http.MethodGet, "/api/meeting/library/"+bert, bertToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	lib := new(models.MeetingsLibrary)
	decode(t, body, lib)
	require.Len(t, lib.Results, 1)
	assert.Equal(t, meeting.ID, lib.Results[0].ID)

	status, body = s.do(t, http.MethodDelete, "/api/meeting/library/"+bert+"/"+meeting.ID, bertToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = s.do(t, http.MethodGet, "/api/meeting/library/"+bert, bertToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	decode(t, body, lib)
	assert.Empty(t, lib.Results)

	status, body = s.do(t, http.MethodDelete, "/api/meeting/"+meeting.ID, nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID, nicoToken, nil)
	assertError(t, status, body, http.StatusNotFound, config.MeetingNotFound)
}

func TestMessageRoutes(t *testing.T) {
	s := newTestServer(t)
	nicoToken := s.token(t, nico)
	meeting := createMeeting(t, s, nicoToken, nil)

	status, body := s.do(t, http.MethodPost, "/api/meeting/"+meeting.ID+"/messages", nicoToken, map[string]interface{}{
		"body": "<b>hello</b><script>alert(1)</script>",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	msg := new(redisservice.Message)
	decode(t, body, msg)
	assert.NotContains(t, msg.Body, "<script>")
	assert.Equal(t, nico, msg.CreatedBy)

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/messages", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	messages := new(models.MeetingMessages)
	decode(t, body, messages)
	require.Len(t, messages.Results, 1)
	assert.Equal(t, msg.Created, messages.Results[0].Created)

	status, body = s.do(t, http.MethodDelete, "/api/meeting/"+meeting.ID+"/messages/abc", nicoToken, nil)
	assertError(t, status, body, http.StatusBadRequest, config.InvalidMessageCreated)

	path := "/api/meeting/" + meeting.ID + "/messages/" + strconv.FormatInt(msg.Created, 10)
	status, body = s.do(t, http.MethodDelete, path, "", nil)
	assertError(t, status, body, http.StatusUnauthorized, config.AnonymousCannotDelete)

	status, body = s.do(t, http.MethodDelete, path, nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/messages", nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	decode(t, body, messages)
	assert.Empty(t, messages.Results)
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, nico)

	status, body := s.do(t, http.MethodGet, "/api/meeting/bogus", token, nil)
	assertError(t, status, body, http.StatusBadRequest, config.InvalidMeetingId)

	status, body = s.do(t, http.MethodGet, "/api/meeting/m:camtest:nothere", token, nil)
	assertError(t, status, body, http.StatusNotFound, config.MeetingNotFound)

	status, body = s.do(t, http.MethodPost, "/api/meeting/create", token, []byte("{not json"))
	assertError(t, status, body, http.StatusBadRequest, config.InvalidRequestBody)

	status, body = s.do(t, http.MethodGet, "/api/meeting/library/"+nico+"?limit=abc", token, nil)
	assertError(t, status, body, http.StatusBadRequest, config.InvalidLimit)

	status, body = s.do(t, http.MethodGet, "/api/meeting/library/"+nico+"?start=nope", token, nil)
	assertError(t, status, body, http.StatusBadRequest, config.InvalidStart)

	status, body = s.do(t, http.MethodGet, "/api/activity?limit=-1", token, nil)
	assertError(t, status, body, http.StatusBadRequest, config.InvalidLimit)
}

func TestConferenceRoutes(t *testing.T) {
	s := newTestServer(t)
	nicoToken := s.token(t, nico)
	bertToken := s.token(t, bert)
	meeting := createMeeting(t, s, nicoToken, map[string]string{bert: config.RoleMember})
	meetingID := bbbservice.HashMeetingID(meeting.ID, bbbSecret)

	status, body := s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/join", bertToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	join := new(models.JoinResponse)
	decode(t, body, join)
	u, err := url.Parse(join.URL)
	require.NoError(t, err)
	assert.Equal(t, meetingID, u.Query().Get("meetingID"))
	require.NotNil(t, s.bbb.Meeting(meetingID))

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/info", nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	info := make(map[string]interface{})
	decode(t, body, &info)
	assert.Equal(t, "Goats", info["meetingName"])

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/end", bertToken, nil)
	assertError(t, status, body, http.StatusUnauthorized, config.NotAllowedToManage)

	status, body = s.do(t, http.MethodGet, "/api/meeting/"+meeting.ID+"/end", nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	s.bbb.AddRecording(meetingID, "rec-1")
	status, body = s.do(t, http.MethodGet, "/api/recording/"+meeting.ID, nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "rec-1")

	status, body = s.do(t, http.MethodPatch, "/api/recording/rec-1?meetingId="+meeting.ID, nicoToken, map[string]interface{}{})
	assertError(t, status, body, http.StatusBadRequest, config.InvalidRequestBody)

	berts := createMeeting(t, s, bertToken, nil)
	status, body = s.do(t, http.MethodDelete, "/api/recording/rec-1?meetingId="+berts.ID, bertToken, nil)
	assertError(t, status, body, http.StatusNotFound, config.RecordingNotFound)
	require.NotNil(t, s.bbb.Recording("rec-1"))

	status, body = s.do(t, http.MethodPatch, "/api/recording/rec-1?meetingId="+meeting.ID, nicoToken, map[string]interface{}{
		"publish": false,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.False(t, s.bbb.Recording("rec-1").Published)

	status, body = s.do(t, http.MethodDelete, "/api/recording/rec-1?meetingId="+meeting.ID, nicoToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Nil(t, s.bbb.Recording("rec-1"))
}

func TestMeetupRoutes(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.ds.ApplyRoleChanges(oaeTeam, map[string]string{
		nico: config.RoleManager,
		bert: config.RoleMember,
	}))
	meetingID := bbbservice.HashMeetingID(oaeTeam, bbbSecret)

	status, body := s.do(t, http.MethodGet, "/api/meetup/"+oaeTeam+"/join", s.token(t, simon), nil)
	assertError(t, status, body, http.StatusUnauthorized, config.NotAllowedToJoinMeetup)

	status, body = s.do(t, http.MethodGet, "/api/meetup/"+oaeTeam+"/join", s.token(t, bert), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NotNil(t, s.bbb.Meeting(meetingID))

	status, body = s.do(t, http.MethodGet, "/api/meetup/"+oaeTeam+"/close", s.token(t, bert), nil)
	assertError(t, status, body, http.StatusUnauthorized, config.NotAllowedToCloseMeetup)

	status, body = s.do(t, http.MethodGet, "/api/meetup/"+oaeTeam+"/close", s.token(t, nico), nil)
	require.Equal(t, http.StatusOK, status, string(body))
}

func TestMeetupRecordingCallback(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.ds.ApplyRoleChanges(oaeTeam, map[string]string{nico: config.RoleManager}))

	signed, err := helpers.SignHS256(bbbSecret, map[string]interface{}{
		"meeting_id": bbbservice.HashMeetingID(oaeTeam, bbbSecret),
		"record_id":  "rec-1",
	})
	require.NoError(t, err)

	post := func(value string) (int, []byte) {
		form := url.Values{"signed_parameters": {value}}
		req := httptest.NewRequest(http.MethodPost, "http://"+camHost+"/meetup/"+oaeTeam+"/recording", strings.NewReader(form.Encode()))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
		return s.send(t, req)
	}

	status, body := post("garbage")
	assertError(t, status, body, http.StatusUnauthorized, config.InvalidRecordingCallback)

	status, body = post(signed)
	require.Equal(t, http.StatusOK, status, string(body))

	// the manager learns about the recording through their activity stream
	status, body = s.do(t, http.MethodGet, "/api/activity", s.token(t, nico), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	stream := struct {
		Results []*redisservice.Activity `json:"results"`
	}{}
	decode(t, body, &stream)
	require.Len(t, stream.Results, 1)
	assert.Equal(t, models.VerbRecordingReady, stream.Results[0].Verb)
	assert.Equal(t, "rec-1", stream.Results[0].ObjectId)
}
