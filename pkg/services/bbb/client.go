package bbbservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/sirupsen/logrus"
)

const (
	ReturnCodeSuccess  = "SUCCESS"
	ReturnCodeFailed   = "FAILED"
	MessageKeyNotFound = "notFound"

	ActionCreate              = "create"
	ActionJoin                = "join"
	ActionEnd                 = "end"
	ActionGetMeetingInfo      = "getMeetingInfo"
	ActionGetRecordings       = "getRecordings"
	ActionDeleteRecordings    = "deleteRecordings"
	ActionPublishRecordings   = "publishRecordings"
	ActionGetDefaultConfigXML = "getDefaultConfigXML"
	ActionSetConfigXML        = "setConfigXML"

	// meetups close the browser window instead of navigating back
	meetupLogoutURL = "javascript:window.close();"
)

// ErrUnexpectedResponse is returned when BBB answers with a failure the
// client does not know how to handle.
var ErrUnexpectedResponse = errors.New("unexpected bbb response")

// Conference describes the resource a conference is held for. For meetups
// this is a group.
type Conference struct {
	Id            string
	DisplayName   string
	ProfilePath   string
	Record        *bool
	AllModerators bool
	IsMeetup      bool
	// RecordingReadyURL is passed to BBB for meetups so it can notify us
	// when a recording has been processed.
	RecordingReadyURL string
}

type JoinRequest struct {
	Conference *Conference
	FullName   string
	IsManager  bool
	Protocol   string
	Host       string
	// ConfigXML is optional. When set it is pushed to BBB before joining.
	ConfigXML string
}

type JoinResult struct {
	URL       string
	MeetingID string
	// Created is true when this join started the conference.
	Created bool
}

type EndMeetingResult struct {
	ReturnCode string                 `json:"returncode"`
	URL        string                 `json:"url,omitempty"`
	Info       map[string]interface{} `json:"info,omitempty"`
}

type Client struct {
	proxy  *Proxy
	logger *logrus.Entry
}

func NewClient(proxy *Proxy, logger *logrus.Logger) *Client {
	return &Client{
		proxy:  proxy,
		logger: logger.WithField("service", "bbb"),
	}
}

func (c *Client) signedURL(cnf *config.BBBConfig, action string, params Params) string {
	u := SignedURL(NormalizeEndpoint(cnf.URL), action, cnf.Secret, params)
	c.logger.WithField("action", action).Debugln(u)
	return u
}

// MeetingID returns the identifier BBB knows the conference of id by.
func MeetingID(cnf *config.BBBConfig, id string) string {
	return HashMeetingID(id, cnf.Secret)
}

// ResolveRecording decides whether a new conference records. A tenant that
// disabled recording never records; otherwise the meeting's own flag wins
// over the tenant default.
func ResolveRecording(cnf *config.BBBConfig, record *bool) bool {
	if !cnf.Recording {
		return false
	}
	if record != nil {
		return *record
	}
	return cnf.RecordingDefault
}

func (c *Client) GetMeetingInfoURL(cnf *config.BBBConfig, id string) string {
	return c.signedURL(cnf, ActionGetMeetingInfo, Params{}.Add("meetingID", MeetingID(cnf, id)))
}

func (c *Client) GetMeetingInfo(ctx context.Context, cnf *config.BBBConfig, id string) (map[string]interface{}, error) {
	return c.proxy.Call(ctx, c.GetMeetingInfoURL(cnf, id))
}

// IsNotFound reports whether a response says the conference does not exist.
func IsNotFound(res map[string]interface{}) bool {
	return Str(res, "returncode") == ReturnCodeFailed && Str(res, "messageKey") == MessageKeyNotFound
}

func IsSuccess(res map[string]interface{}) bool {
	return Str(res, "returncode") == ReturnCodeSuccess
}

// JoinURL returns a signed join url. The conference is created on BBB when
// it is not running yet.
func (c *Client) JoinURL(ctx context.Context, cnf *config.BBBConfig, r *JoinRequest) (*JoinResult, error) {
	meetingID := MeetingID(cnf, r.Conference.Id)
	result := &JoinResult{MeetingID: meetingID}

	info, err := c.GetMeetingInfo(ctx, cnf, r.Conference.Id)
	if err != nil {
		return nil, err
	}

	switch {
	case IsNotFound(info):
		info, err = c.proxy.Call(ctx, c.createURL(cnf, r))
		if err != nil {
			return nil, err
		}
		if !IsSuccess(info) {
			return nil, fmt.Errorf("%w: create returned %s/%s", ErrUnexpectedResponse, Str(info, "returncode"), Str(info, "messageKey"))
		}
		result.Created = true
	case !IsSuccess(info):
		return nil, fmt.Errorf("%w: getMeetingInfo returned %s/%s", ErrUnexpectedResponse, Str(info, "returncode"), Str(info, "messageKey"))
	}

	password := Str(info, "attendeePW")
	if r.IsManager || r.Conference.AllModerators {
		password = Str(info, "moderatorPW")
	}

	params := Params{}.
		Add("meetingID", meetingID).
		Add("fullName", r.FullName).
		Add("password", password)

	if r.ConfigXML != "" {
		token, err := c.SetConfigXML(ctx, cnf, meetingID, r.ConfigXML)
		if err != nil {
			c.logger.WithError(err).WithField("meetingId", r.Conference.Id).Warnln("could not set config xml, joining with defaults")
		} else {
			params = params.Add("configToken", token)
		}
	}

	result.URL = c.signedURL(cnf, ActionJoin, params)
	return result, nil
}

func (c *Client) createURL(cnf *config.BBBConfig, r *JoinRequest) string {
	logoutURL := fmt.Sprintf("%s://%s%s", r.Protocol, r.Host, r.Conference.ProfilePath)
	if r.Conference.IsMeetup {
		logoutURL = meetupLogoutURL
	}

	params := Params{}.
		Add("meetingID", MeetingID(cnf, r.Conference.Id)).
		Add("name", r.Conference.DisplayName).
		Add("logoutURL", logoutURL).
		Add("record", strconv.FormatBool(ResolveRecording(cnf, r.Conference.Record)))

	if r.Conference.IsMeetup && r.Conference.RecordingReadyURL != "" {
		params = params.Add("meta_bn-recording-ready-url", r.Conference.RecordingReadyURL)
	}

	return c.signedURL(cnf, ActionCreate, params)
}

// SetConfigXML uploads a client configuration for one conference and returns
// the token that activates it on join.
func (c *Client) SetConfigXML(ctx context.Context, cnf *config.BBBConfig, meetingID, configXML string) (string, error) {
	query := Params{}.
		Add("configXML", configXML).
		Add("meetingID", meetingID).
		Encode()
	body := query + "&checksum=" + Checksum(ActionSetConfigXML, query, cnf.Secret)

	res, err := c.proxy.CallExtended(ctx, &ProxyRequest{
		URL:         NormalizeEndpoint(cnf.URL) + "api/" + ActionSetConfigXML,
		Method:      http.MethodPost,
		Body:        body,
		ContentType: "application/x-www-form-urlencoded",
	})
	if err != nil {
		return "", err
	}

	if !IsSuccess(res.Response) {
		return "", fmt.Errorf("%w: setConfigXML returned %s/%s", ErrUnexpectedResponse, Str(res.Response, "returncode"), Str(res.Response, "messageKey"))
	}
	token := Str(res.Response, "configToken")
	if token == "" {
		return "", fmt.Errorf("%w: setConfigXML returned no token", ErrUnexpectedResponse)
	}
	return token, nil
}

// GetEndMeetingURL returns the signed end url of a running conference. A
// conference that is not running yields a failed result rather than an
// error; any other failure is an ErrUnexpectedResponse.
func (c *Client) GetEndMeetingURL(ctx context.Context, cnf *config.BBBConfig, id string) (*EndMeetingResult, error) {
	info, err := c.GetMeetingInfo(ctx, cnf, id)
	if err != nil {
		return nil, err
	}

	if IsNotFound(info) {
		return &EndMeetingResult{ReturnCode: "failed", Info: info}, nil
	}
	if !IsSuccess(info) {
		return nil, fmt.Errorf("%w: getMeetingInfo returned %s", ErrUnexpectedResponse, Str(info, "messageKey"))
	}

	params := Params{}.
		Add("meetingID", MeetingID(cnf, id)).
		Add("password", Str(info, "moderatorPW"))

	return &EndMeetingResult{
		ReturnCode: "success",
		URL:        c.signedURL(cnf, ActionEnd, params),
	}, nil
}

func (c *Client) GetRecordingsURL(cnf *config.BBBConfig, id string) string {
	return c.signedURL(cnf, ActionGetRecordings, Params{}.Add("meetingID", MeetingID(cnf, id)))
}

// HasRecording reports whether recordingId is one of the recordings BBB
// keeps for the conference of id.
func (c *Client) HasRecording(ctx context.Context, cnf *config.BBBConfig, id, recordingId string) (bool, error) {
	res, err := c.proxy.Call(ctx, c.GetRecordingsURL(cnf, id))
	if err != nil {
		return false, err
	}
	if !IsSuccess(res) {
		return false, fmt.Errorf("%w: getRecordings returned %s", ErrUnexpectedResponse, Str(res, "messageKey"))
	}

	for _, rec := range Recordings(res) {
		if Str(rec, "recordID") == recordingId {
			return true, nil
		}
	}
	return false, nil
}

// Recordings lists the recording elements of a getRecordings response. A
// single recording is flattened by the proxy, so both shapes are accepted.
func Recordings(res map[string]interface{}) []map[string]interface{} {
	recordings, ok := res["recordings"].(map[string]interface{})
	if !ok {
		return nil
	}

	switch v := recordings["recording"].(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}
	case []interface{}:
		list := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if rec, ok := item.(map[string]interface{}); ok {
				list = append(list, rec)
			}
		}
		return list
	}
	return nil
}

func (c *Client) DeleteRecordingsURL(cnf *config.BBBConfig, recordingId string) string {
	return c.signedURL(cnf, ActionDeleteRecordings, Params{}.Add("recordID", recordingId))
}

// UpdateRecordingsURL publishes or unpublishes a recording.
func (c *Client) UpdateRecordingsURL(cnf *config.BBBConfig, recordingId string, publish bool) string {
	params := Params{}.
		Add("recordID", recordingId).
		Add("publish", strconv.FormatBool(publish))
	return c.signedURL(cnf, ActionPublishRecordings, params)
}

func (c *Client) GetDefaultConfigXMLURL(cnf *config.BBBConfig) string {
	return c.signedURL(cnf, ActionGetDefaultConfigXML, nil)
}

// GetDefaultConfigXML fetches the tenant's client configuration template
// without parsing it.
func (c *Client) GetDefaultConfigXML(ctx context.Context, cnf *config.BBBConfig) (string, error) {
	res, err := c.proxy.CallExtended(ctx, &ProxyRequest{
		URL:  c.GetDefaultConfigXMLURL(cnf),
		Mode: ModeRaw,
	})
	if err != nil {
		return "", err
	}
	return res.Raw, nil
}

// Call forwards a signed url through the proxy.
func (c *Client) Call(ctx context.Context, url string) (map[string]interface{}, error) {
	return c.proxy.Call(ctx, url)
}
