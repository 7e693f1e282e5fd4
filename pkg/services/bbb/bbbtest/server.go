// Package bbbtest provides an in-process BBB API server for tests.
package bbbtest

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/mynaparrot/plugnmeet-protocol/bbbapiwrapper"
)

// APIPath is where the fake server mounts the BBB api.
const APIPath = "/bigbluebutton/"

type Meeting struct {
	MeetingID   string
	Name        string
	ModeratorPW string
	AttendeePW  string
	Running     bool
	Params      url.Values
}

type Recording struct {
	RecordID  string
	MeetingID string
	Published bool
}

type Server struct {
	*httptest.Server
	Secret string

	DefaultConfigXML string

	mu         sync.Mutex
	meetings   map[string]*Meeting
	recordings map[string]*Recording
	calls      []string
	configs    map[string]string
	seq        int

	failSetConfigXML bool
}

func NewServer(secret string) *Server {
	s := &Server{
		Secret:           secret,
		DefaultConfigXML: `<config><layout defaultLayout="bbb.layout.name.defaultlayout" showLayoutTools="true"/></config>`,
		meetings:         make(map[string]*Meeting),
		recordings:       make(map[string]*Recording),
		configs:          make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint is the base url to configure a tenant with.
func (s *Server) Endpoint() string {
	return s.URL + APIPath
}

// Calls lists the api actions received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) Meeting(meetingID string) *Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok {
		return nil
	}
	c := *m
	return &c
}

// FailSetConfigXML makes setConfigXML answer with FAILED.
func (s *Server) FailSetConfigXML(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSetConfigXML = fail
}

func (s *Server) SetRunning(meetingID string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[meetingID]; ok {
		m.Running = running
	}
}

func (s *Server) AddRecording(meetingID, recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[recordID] = &Recording{RecordID: recordID, MeetingID: meetingID, Published: true}
}

func (s *Server) Recording(recordID string) *Recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recordings[recordID]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

// ConfigXML returns the config uploaded under token.
func (s *Server) ConfigXML(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs[token]
}

func checksum(action, query, secret string) string {
	sum := sha1.Sum([]byte(action + query + secret))
	return hex.EncodeToString(sum[:])
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	action := path.Base(r.URL.Path)

	query := r.URL.RawQuery
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		query = string(body)
	}

	idx := strings.LastIndex(query, "checksum=")
	if idx < 0 {
		writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "checksumError", "Checksums do not match"))
		return
	}
	signed := strings.TrimSuffix(query[:idx], "&")
	if checksum(action, signed, s.Secret) != query[idx+len("checksum="):] {
		writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "checksumError", "Checksums do not match"))
		return
	}

	values, err := url.ParseQuery(signed)
	if err != nil {
		writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "parsingError", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, action)

	meetingID := values.Get("meetingID")
	switch action {
	case "create":
		m, ok := s.meetings[meetingID]
		if !ok {
			s.seq++
			m = &Meeting{
				MeetingID:   meetingID,
				Name:        values.Get("name"),
				ModeratorPW: fmt.Sprintf("mp-%d", s.seq),
				AttendeePW:  fmt.Sprintf("ap-%d", s.seq),
				Params:      values,
			}
			s.meetings[meetingID] = m
		}
		writeXML(w, bbbapiwrapper.CreateMeetingResp{
			ReturnCode:        "SUCCESS",
			MessageKey:        "success",
			Message:           "success",
			MeetingID:         m.MeetingID,
			InternalMeetingID: m.MeetingID,
			AttendeePW:        m.AttendeePW,
			ModeratorPW:       m.ModeratorPW,
		})

	case "getMeetingInfo":
		m, ok := s.meetings[meetingID]
		if !ok {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "notFound", "We could not find a meeting with that meeting ID"))
			return
		}
		writeRaw(w, fmt.Sprintf("<response><returncode>SUCCESS</returncode><meetingName>%s</meetingName><meetingID>%s</meetingID><attendeePW>%s</attendeePW><moderatorPW>%s</moderatorPW><running>%t</running></response>",
			escape(m.Name), m.MeetingID, m.AttendeePW, m.ModeratorPW, m.Running))

	case "join":
		m, ok := s.meetings[meetingID]
		if !ok || (values.Get("password") != m.ModeratorPW && values.Get("password") != m.AttendeePW) {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "invalidPassword", "You either did not supply a password or the password supplied is neither the attendee or moderator password for this conference."))
			return
		}
		m.Running = true
		writeRaw(w, "<response><returncode>SUCCESS</returncode><messageKey>successfullyJoined</messageKey></response>")

	case "end":
		m, ok := s.meetings[meetingID]
		if !ok {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "notFound", "We could not find a meeting with that meeting ID"))
			return
		}
		if values.Get("password") != m.ModeratorPW {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "invalidPassword", "invalid password"))
			return
		}
		delete(s.meetings, meetingID)
		writeXML(w, bbbapiwrapper.CommonResponseMsg("SUCCESS", "sentEndMeetingRequest", "A request to end the meeting was sent."))

	case "setConfigXML":
		if s.failSetConfigXML {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "configXMLError", "could not save config"))
			return
		}
		s.seq++
		token := fmt.Sprintf("cfg-%d", s.seq)
		s.configs[token] = values.Get("configXML")
		writeRaw(w, fmt.Sprintf("<response><returncode>SUCCESS</returncode><configToken>%s</configToken></response>", token))

	case "getDefaultConfigXML":
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(s.DefaultConfigXML))

	case "getRecordings":
		var ids []string
		for id, rec := range s.recordings {
			if rec.MeetingID == meetingID {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)

		var buf bytes.Buffer
		buf.WriteString("<response><returncode>SUCCESS</returncode>")
		if len(ids) == 0 {
			buf.WriteString("<recordings></recordings><messageKey>noRecordings</messageKey>")
		} else {
			buf.WriteString("<recordings>")
			for _, id := range ids {
				rec := s.recordings[id]
				buf.WriteString(fmt.Sprintf("<recording><recordID>%s</recordID><meetingID>%s</meetingID><published>%t</published></recording>", rec.RecordID, rec.MeetingID, rec.Published))
			}
			buf.WriteString("</recordings>")
		}
		buf.WriteString("</response>")
		writeRaw(w, buf.String())

	case "deleteRecordings":
		id := values.Get("recordID")
		if _, ok := s.recordings[id]; !ok {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "notFound", "We could not find recordings"))
			return
		}
		delete(s.recordings, id)
		writeRaw(w, "<response><returncode>SUCCESS</returncode><deleted>true</deleted></response>")

	case "publishRecordings":
		id := values.Get("recordID")
		rec, ok := s.recordings[id]
		if !ok {
			writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "notFound", "We could not find recordings"))
			return
		}
		rec.Published = values.Get("publish") == "true"
		writeRaw(w, fmt.Sprintf("<response><returncode>SUCCESS</returncode><published>%t</published></response>", rec.Published))

	default:
		writeXML(w, bbbapiwrapper.CommonResponseMsg("FAILED", "unsupportedRequest", "This request is not supported."))
	}
}

func writeXML(w http.ResponseWriter, v interface{}) {
	b, err := xml.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, string(b))
}

func writeRaw(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(xml.Header + body))
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
