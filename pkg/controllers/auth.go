package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/sirupsen/logrus"
)

// AuthController holds dependencies for auth-related handlers.
type AuthController struct {
	AppConfig    *config.AppConfig
	AuthModel    *models.AuthModel
	MeetingModel *models.MeetingModel
	logger       *logrus.Entry
}

// NewAuthController creates a new AuthController.
func NewAuthController(config *config.AppConfig, authModel *models.AuthModel, meetingModel *models.MeetingModel, logger *logrus.Logger) *AuthController {
	return &AuthController{
		AppConfig:    config,
		AuthModel:    authModel,
		MeetingModel: meetingModel,
		logger:       logger.WithField("controller", "auth"),
	}
}

// HandleAuthHeaderCheck is a middleware to check API-KEY & HASH-SIGNATURE.
func (ac *AuthController) HandleAuthHeaderCheck(c *fiber.Ctx) error {
	apiKey := c.Get("API-KEY", "")
	signature := c.Get("HASH-SIGNATURE", "")
	body := c.Body()

	if apiKey != ac.AppConfig.Client.ApiKey {
		return sendError(c, ac.logger, helpers.NewAuthzError(config.InvalidApiKey))
	}
	if signature == "" {
		return sendError(c, ac.logger, helpers.NewAuthzError(config.HashSignatureRequired))
	}

	mac := hmac.New(sha256.New, []byte(ac.AppConfig.Client.Secret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expectedSignature), []byte(signature)) != 1 {
		return sendError(c, ac.logger, helpers.NewAuthzError(config.HashSignatureVerifyFailed))
	}

	return c.Next()
}

// HandleBuildContext is a middleware that resolves the tenant from the host
// and the user from an optional bearer token.
func (ac *AuthController) HandleBuildContext(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}

	ctx, err := ac.AuthModel.BuildContext(c.Protocol(), c.Hostname(), token)
	if err != nil {
		return sendError(c, ac.logger, err)
	}
	c.Locals(authContextKey, ctx)

	return c.Next()
}

// HandleIssueToken issues an access token for a host platform user.
func (ac *AuthController) HandleIssueToken(c *fiber.Ctx) error {
	req := new(models.IssueTokenReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, ac.logger, err)
	}

	token, err := ac.AuthModel.IssueAccessToken(req)
	if err != nil {
		return sendError(c, ac.logger, err)
	}
	return c.JSON(token)
}

// HandleUpsertPrincipal creates or refreshes a user or group.
func (ac *AuthController) HandleUpsertPrincipal(c *fiber.Ctx) error {
	req := new(models.UpsertPrincipalReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, ac.logger, err)
	}

	p, err := ac.AuthModel.UpsertPrincipal(req)
	if err != nil {
		return sendError(c, ac.logger, err)
	}
	return c.JSON(p.BasicProfile())
}

func (ac *AuthController) HandleSetGroupMembers(c *fiber.Ctx) error {
	req := new(models.SetGroupMembersReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, ac.logger, err)
	}

	if err := ac.AuthModel.SetGroupMembers(c.UserContext(), req); err != nil {
		return sendError(c, ac.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandleVerifySignature checks a signature handed out with a meeting profile.
func (ac *AuthController) HandleVerifySignature(c *fiber.Ctx) error {
	req := new(models.VerifySignatureReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, ac.logger, err)
	}
	if req.Signature == "" {
		return sendError(c, ac.logger, helpers.NewValidationError(config.SignatureRequired))
	}
	if !helpers.IsValidMeetingId(req.ResourceId) {
		return sendError(c, ac.logger, helpers.NewValidationError(config.InvalidMeetingId))
	}

	userId, err := ac.MeetingModel.VerifyResourceSignature(req.Signature, req.ResourceId)
	if err != nil {
		return sendError(c, ac.logger, err)
	}
	return c.JSON(fiber.Map{
		"userId":     userId,
		"resourceId": req.ResourceId,
	})
}
