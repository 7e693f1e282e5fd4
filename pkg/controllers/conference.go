package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/sirupsen/logrus"
)

// ConferenceController exposes meeting conferences, group meetups and their
// recordings on the tenant's BBB server.
type ConferenceController struct {
	BBBModel *models.BBBModel
	logger   *logrus.Entry
}

// NewConferenceController creates a new ConferenceController.
func NewConferenceController(bm *models.BBBModel, logger *logrus.Logger) *ConferenceController {
	return &ConferenceController{
		BBBModel: bm,
		logger:   logger.WithField("controller", "conference"),
	}
}

func (cc *ConferenceController) HandleJoinMeeting(c *fiber.Ctx) error {
	res, err := cc.BBBModel.JoinMeeting(c.UserContext(), authContext(c), c.Params("id"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

func (cc *ConferenceController) HandleMeetingInfo(c *fiber.Ctx) error {
	info, err := cc.BBBModel.GetMeetingInfo(c.UserContext(), authContext(c), c.Params("id"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(info)
}

func (cc *ConferenceController) HandleEndMeeting(c *fiber.Ctx) error {
	res, err := cc.BBBModel.EndMeeting(c.UserContext(), authContext(c), c.Params("id"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

func (cc *ConferenceController) HandleJoinMeetup(c *fiber.Ctx) error {
	res, err := cc.BBBModel.JoinMeetup(c.UserContext(), authContext(c), c.Params("groupId"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

func (cc *ConferenceController) HandleCloseMeetup(c *fiber.Ctx) error {
	res, err := cc.BBBModel.CloseMeetup(c.UserContext(), authContext(c), c.Params("groupId"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

// HandleMeetupRecordingReady receives BBB's recording-ready callback. The
// payload is a JWT in the signed_parameters form field.
func (cc *ConferenceController) HandleMeetupRecordingReady(c *fiber.Ctx) error {
	signed := c.FormValue("signed_parameters")
	if signed == "" {
		signed = c.Query("signed_parameters")
	}

	if err := cc.BBBModel.MeetupRecordingReady(c.UserContext(), c.Params("groupId"), signed); err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (cc *ConferenceController) HandleGetRecordings(c *fiber.Ctx) error {
	res, err := cc.BBBModel.GetRecordings(c.UserContext(), authContext(c), c.Params("id"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

func (cc *ConferenceController) HandleDeleteRecording(c *fiber.Ctx) error {
	res, err := cc.BBBModel.DeleteRecording(c.UserContext(), authContext(c), c.Query("meetingId"), c.Params("id"))
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}

type updateRecordingReq struct {
	Publish *bool `json:"publish"`
}

// HandleUpdateRecording publishes or unpublishes a recording using
// {"publish": bool}.
func (cc *ConferenceController) HandleUpdateRecording(c *fiber.Ctx) error {
	req := new(updateRecordingReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, cc.logger, err)
	}
	if req.Publish == nil {
		return sendError(c, cc.logger, helpers.NewValidationError(config.InvalidRequestBody))
	}

	res, err := cc.BBBModel.UpdateRecording(c.UserContext(), authContext(c), c.Query("meetingId"), c.Params("id"), *req.Publish)
	if err != nil {
		return sendError(c, cc.logger, err)
	}
	return c.JSON(res)
}
