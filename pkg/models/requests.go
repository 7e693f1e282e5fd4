package models

import (
	"github.com/goccy/go-json"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
)

// RoleChange is a role name, or RoleRemove to revoke a principal's role.
type RoleChange string

const RoleRemove RoleChange = "false"

// UnmarshalJSON accepts the JSON literal false as RoleRemove.
func (r *RoleChange) UnmarshalJSON(b []byte) error {
	if string(b) == "false" {
		*r = RoleRemove
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = RoleChange(s)
	return nil
}

type CreateMeetingReq struct {
	DisplayName   string            `json:"displayName" validate:"required,max=1000"`
	Description   string            `json:"description" validate:"required,max=10000"`
	Record        *bool             `json:"record"`
	AllModerators bool              `json:"allModerators"`
	WaitModerator bool              `json:"waitModerator"`
	Visibility    string            `json:"visibility" validate:"omitempty,visibility"`
	Members       map[string]string `json:"members" validate:"dive,keys,principalid,endkeys,role"`
}

type ShareMeetingReq struct {
	MeetingId string   `json:"meetingId" validate:"meetingid"`
	Members   []string `json:"members" validate:"required,min=1,dive,principalid"`
}

type SetMeetingPermissionsReq struct {
	MeetingId string                `json:"meetingId" validate:"meetingid"`
	Changes   map[string]RoleChange `json:"changes" validate:"required,min=1,dive,keys,principalid,endkeys,rolechange"`
}

type CreateMessageReq struct {
	MeetingId string `json:"meetingId" validate:"meetingid"`
	Body      string `json:"body" validate:"required,max=100000"`
	ReplyTo   int64  `json:"replyTo" validate:"gte=0"`
}

type PageReq struct {
	Start string `json:"start"`
	Limit int    `json:"limit" validate:"gte=0"`
}

// IssueTokenReq asks for an access token on behalf of a host platform user.
type IssueTokenReq struct {
	UserId        string `json:"userId" validate:"required,principalid"`
	IsTenantAdmin bool   `json:"isTenantAdmin"`
	IsGlobalAdmin bool   `json:"isGlobalAdmin"`
}

type AccessToken struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

type UpsertPrincipalReq struct {
	Id          string `json:"id" validate:"principalid"`
	DisplayName string `json:"displayName" validate:"required,max=1000"`
	Visibility  string `json:"visibility" validate:"required,visibility"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type SetGroupMembersReq struct {
	GroupId string                `json:"groupId" validate:"principalid"`
	Changes map[string]RoleChange `json:"changes" validate:"required,min=1,dive,keys,principalid,endkeys,rolechange"`
}

type VerifySignatureReq struct {
	Signature  string `json:"signature" validate:"required"`
	ResourceId string `json:"resourceId" validate:"meetingid"`
}

// FullMeetingProfile is a meeting enriched with the caller's permissions.
type FullMeetingProfile struct {
	*dbmodels.Meeting
	// CreatedBy is the creator's basic profile, or the raw principal id when
	// the creator no longer exists.
	CreatedBy interface{}      `json:"createdBy"`
	IsManager bool             `json:"isManager"`
	CanShare  bool             `json:"canShare"`
	CanJoin   bool             `json:"canJoin"`
	Signature *AccessSignature `json:"signature,omitempty"`
}

// AccessSignature lets the holder prove access to a resource until it
// expires.
type AccessSignature struct {
	Signature string `json:"signature"`
	Expires   int64  `json:"expires"`
}

type MeetingsLibrary struct {
	Results   []*dbmodels.Meeting `json:"results"`
	NextToken string              `json:"nextToken"`
}

type MeetingMember struct {
	Profile *dbmodels.BasicProfile `json:"profile"`
	Role    string                 `json:"role"`
}

type MeetingMembers struct {
	Results   []*MeetingMember `json:"results"`
	NextToken string           `json:"nextToken"`
}

type MeetingMessages struct {
	Results   []*redisservice.Message `json:"results"`
	NextToken string                  `json:"nextToken"`
}
