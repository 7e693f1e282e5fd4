package models

import (
	"context"
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	"github.com/sirupsen/logrus"
)

// AuthModel issues the access tokens of host platform users and keeps the
// local copy of their principals up to date.
type AuthModel struct {
	app     *config.AppConfig
	tenants config.TenantConfigProvider
	ds      *dbservice.DatabaseService
	logger  *logrus.Entry
	now     func() time.Time
}

func NewAuthModel(app *config.AppConfig, ds *dbservice.DatabaseService, logger *logrus.Logger) *AuthModel {
	return &AuthModel{
		app:     app,
		tenants: app,
		ds:      ds,
		logger:  logger.WithField("model", "auth"),
		now:     time.Now,
	}
}

type accessClaims struct {
	IsTenantAdmin bool `json:"tenantAdmin,omitempty"`
	IsGlobalAdmin bool `json:"globalAdmin,omitempty"`
}

func (a *AuthModel) IssueAccessToken(req *IssueTokenReq) (*AccessToken, error) {
	if err := validateReq(req); err != nil {
		return nil, err
	}

	p, err := a.ds.GetPrincipal(req.UserId)
	if err != nil {
		return nil, err
	}
	if p == nil || p.IsGroup() {
		return nil, helpers.NewNotFoundError(config.PrincipalNotFound)
	}

	now := a.now()
	expires := now.Add(*a.app.Client.TokenValidity)
	token, err := helpers.SignHS256(a.app.Client.Secret, &jwt.Claims{
		Issuer:    a.app.Client.ApiKey,
		Subject:   p.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(expires),
	}, &accessClaims{
		IsTenantAdmin: req.IsTenantAdmin,
		IsGlobalAdmin: req.IsGlobalAdmin,
	})
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		Token:   token,
		Expires: expires.UnixMilli(),
	}, nil
}

// BuildContext resolves the tenant from the request host and, when a token
// is given, the user it was issued to.
func (a *AuthModel) BuildContext(protocol, host, token string) (*authz.Context, error) {
	ctx := &authz.Context{
		Tenant:   a.tenants.GetTenantByHost(host),
		Protocol: protocol,
		Host:     host,
	}
	if token == "" {
		return ctx, nil
	}

	claims := jwt.Claims{}
	ac := accessClaims{}
	if err := helpers.ParseHS256(token, a.app.Client.Secret, &claims, &ac); err != nil {
		return nil, helpers.NewAuthzError(config.InvalidAccessToken)
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{
		Issuer: a.app.Client.ApiKey,
		Time:   a.now(),
	}, 0); err != nil {
		return nil, tokenError(err)
	}

	p, err := a.ds.GetPrincipal(claims.Subject)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, helpers.NewAuthzError(config.InvalidAccessToken)
	}

	ctx.User = &authz.User{
		Id:            p.ID,
		DisplayName:   p.DisplayName,
		Visibility:    p.Visibility,
		Tenant:        a.tenants.GetTenant(p.TenantAlias),
		IsTenantAdmin: ac.IsTenantAdmin,
		IsGlobalAdmin: ac.IsGlobalAdmin,
	}
	return ctx, nil
}

// UpsertPrincipal stores the profile of a host platform user or group. The
// tenant is taken from the principal id.
func (a *AuthModel) UpsertPrincipal(req *UpsertPrincipalReq) (*dbmodels.Principal, error) {
	if err := validateReq(req); err != nil {
		return nil, err
	}

	alias := helpers.TenantOf(req.Id)
	if a.tenants.GetTenant(alias) == nil {
		return nil, helpers.NewValidationError(config.UnknownTenant)
	}

	now := a.now().UnixMilli()
	p := &dbmodels.Principal{
		ID:           req.Id,
		TenantAlias:  alias,
		DisplayName:  req.DisplayName,
		Visibility:   req.Visibility,
		Email:        req.Email,
		Created:      now,
		LastModified: now,
	}
	if err := a.ds.UpsertPrincipal(p); err != nil {
		return nil, err
	}

	a.logger.WithField("principalId", p.ID).Debugln("principal upserted")
	return p, nil
}

// SetGroupMembers applies role changes to a group's members.
func (a *AuthModel) SetGroupMembers(_ context.Context, req *SetGroupMembersReq) error {
	if err := validateReq(req); err != nil {
		return err
	}
	if !helpers.IsGroupId(req.GroupId) {
		return helpers.NewValidationError(config.InvalidPrincipalId)
	}

	group, err := a.ds.GetPrincipal(req.GroupId)
	if err != nil {
		return err
	}
	if group == nil {
		return helpers.NewNotFoundError(config.GroupNotFound)
	}

	changes := make(map[string]string, len(req.Changes))
	ids := make([]string, 0, len(req.Changes))
	for id, c := range req.Changes {
		if c == RoleRemove {
			changes[id] = ""
			continue
		}
		changes[id] = string(c)
		ids = append(ids, id)
	}

	principals, err := a.ds.GetPrincipalsByIds(ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := principals[id]; !ok {
			return helpers.NewNotFoundError(config.PrincipalNotFound)
		}
	}

	return a.ds.ApplyRoleChanges(group.ID, changes)
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrExpired) {
		return helpers.NewAuthzError(config.AccessTokenExpired)
	}
	return helpers.NewAuthzError(config.InvalidAccessToken)
}
