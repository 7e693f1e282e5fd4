package models

import (
	"context"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"golang.org/x/sync/errgroup"
)

// GetFullMeetingProfile returns the meeting with the caller's permissions
// and the creator's profile.
func (m *MeetingModel) GetFullMeetingProfile(ctx context.Context, auth *authz.Context, meetingId string) (*FullMeetingProfile, error) {
	if !helpers.IsValidMeetingId(meetingId) {
		return nil, helpers.NewValidationError(config.InvalidMeetingId)
	}

	meeting, err := m.getMeeting(meetingId)
	if err != nil {
		return nil, err
	}

	var access *authz.Access
	var creator *dbmodels.Principal
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		access, err = m.access(auth, meeting)
		return err
	})
	g.Go(func() error {
		var err error
		creator, err = m.ds.GetPrincipal(meeting.CreatedBy)
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	if !access.CanView {
		return nil, helpers.NewAuthzError(config.NotAllowedToView)
	}

	profile := &FullMeetingProfile{
		Meeting:   meeting,
		CreatedBy: meeting.CreatedBy,
		IsManager: access.CanManage,
		CanShare:  access.CanShare,
		CanJoin:   access.CanJoin,
	}
	if creator != nil {
		profile.CreatedBy = creator.BasicProfile()
	} else {
		m.logger.WithField("meetingId", meeting.ID).Warnln("the creator of the meeting no longer exists:", meeting.CreatedBy)
	}

	if !auth.IsAnonymous() {
		sig, err := m.signResource(auth.UserId(), meeting.ID)
		if err != nil {
			return nil, err
		}
		profile.Signature = sig
	}

	m.emit(ctx, &events.MeetingProfileRead{
		Meta:    m.meta(auth, nil),
		Meeting: meeting,
	})

	return profile, nil
}

type resourceClaims struct {
	ResourceId string `json:"resourceId"`
}

// signResource grants userId access to resourceId until the signature
// expires.
func (m *MeetingModel) signResource(userId, resourceId string) (*AccessSignature, error) {
	expires := m.now().Add(*m.app.Client.TokenValidity)
	token, err := helpers.SignHS256(m.app.Client.Secret, &jwt.Claims{
		Issuer:   m.app.Client.ApiKey,
		Subject:  userId,
		IssuedAt: jwt.NewNumericDate(m.now()),
		Expiry:   jwt.NewNumericDate(expires),
	}, &resourceClaims{ResourceId: resourceId})
	if err != nil {
		return nil, err
	}

	return &AccessSignature{
		Signature: token,
		Expires:   expires.UnixMilli(),
	}, nil
}

// VerifyResourceSignature returns the user id a signature was issued to when
// it is valid for resourceId.
func (m *MeetingModel) VerifyResourceSignature(signature, resourceId string) (string, error) {
	claims := jwt.Claims{}
	rc := resourceClaims{}
	if err := helpers.ParseHS256(signature, m.app.Client.Secret, &claims, &rc); err != nil {
		return "", helpers.NewAuthzError(config.InvalidAccessToken)
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Issuer: m.app.Client.ApiKey, Time: m.now()}, 0); err != nil {
		return "", tokenError(err)
	}
	if rc.ResourceId != resourceId {
		return "", helpers.NewAuthzError(config.InvalidAccessToken)
	}
	return claims.Subject, nil
}
