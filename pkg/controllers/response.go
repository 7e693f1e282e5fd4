package controllers

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/sirupsen/logrus"
)

const authContextKey = "authContext"

// sendError writes err as {code, msg}. Errors that are not API errors are
// logged and hidden behind a generic message.
func sendError(c *fiber.Ctx, logger *logrus.Entry, err error) error {
	if apiErr, ok := helpers.AsAPIError(err); ok {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Errorln("request failed")

	return c.Status(fiber.StatusInternalServerError).JSON(&helpers.APIError{
		Code: fiber.StatusInternalServerError,
		Msg:  config.UnexpectedError,
	})
}

// authContext returns the context stored by AuthController.HandleBuildContext.
func authContext(c *fiber.Ctx) *authz.Context {
	if ctx, ok := c.Locals(authContextKey).(*authz.Context); ok {
		return ctx
	}
	return &authz.Context{}
}

// parseBody decodes a JSON body into req. A malformed body is a validation
// error.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return helpers.NewValidationError(config.InvalidRequestBody)
	}
	return nil
}

// pageReq reads the start and limit query parameters.
func pageReq(c *fiber.Ctx) (*models.PageReq, error) {
	req := &models.PageReq{
		Start: c.Query("start"),
	}
	if limit := c.Query("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			return nil, helpers.NewValidationError(config.InvalidLimit)
		}
		req.Limit = l
	}
	return req, nil
}
