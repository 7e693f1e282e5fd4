package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/sirupsen/logrus"
)

// MeetingController holds dependencies for meeting-related handlers.
type MeetingController struct {
	MeetingModel *models.MeetingModel
	logger       *logrus.Entry
}

// NewMeetingController creates a new MeetingController.
func NewMeetingController(mm *models.MeetingModel, logger *logrus.Logger) *MeetingController {
	return &MeetingController{
		MeetingModel: mm,
		logger:       logger.WithField("controller", "meeting"),
	}
}

func (mc *MeetingController) HandleCreateMeeting(c *fiber.Ctx) error {
	req := new(models.CreateMeetingReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, mc.logger, err)
	}

	meeting, err := mc.MeetingModel.CreateMeeting(c.UserContext(), authContext(c), req)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meeting)
}

func (mc *MeetingController) HandleGetMeeting(c *fiber.Ctx) error {
	profile, err := mc.MeetingModel.GetFullMeetingProfile(c.UserContext(), authContext(c), c.Params("id"))
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.JSON(profile)
}

// HandleUpdateMeeting applies the fields present in the body.
func (mc *MeetingController) HandleUpdateMeeting(c *fiber.Ctx) error {
	changes := make(map[string]interface{})
	if err := parseBody(c, &changes); err != nil {
		return sendError(c, mc.logger, err)
	}

	meeting, err := mc.MeetingModel.UpdateMeeting(c.UserContext(), authContext(c), c.Params("id"), changes)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.JSON(meeting)
}

func (mc *MeetingController) HandleDeleteMeeting(c *fiber.Ctx) error {
	if err := mc.MeetingModel.DeleteMeeting(c.UserContext(), authContext(c), c.Params("id")); err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (mc *MeetingController) HandleGetLibrary(c *fiber.Ctx) error {
	req, err := pageReq(c)
	if err != nil {
		return sendError(c, mc.logger, err)
	}

	lib, err := mc.MeetingModel.GetMeetingsLibrary(c.UserContext(), authContext(c), c.Params("principalId"), req)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.JSON(lib)
}

func (mc *MeetingController) HandleRemoveFromLibrary(c *fiber.Ctx) error {
	err := mc.MeetingModel.RemoveMeetingFromLibrary(c.UserContext(), authContext(c), c.Params("principalId"), c.Params("meetingId"))
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandleShareMeeting adds the principals in {"members": [...]} as members.
func (mc *MeetingController) HandleShareMeeting(c *fiber.Ctx) error {
	req := new(models.ShareMeetingReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, mc.logger, err)
	}
	req.MeetingId = c.Params("id")

	if err := mc.MeetingModel.ShareMeeting(c.UserContext(), authContext(c), req); err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (mc *MeetingController) HandleGetMembers(c *fiber.Ctx) error {
	req, err := pageReq(c)
	if err != nil {
		return sendError(c, mc.logger, err)
	}

	members, err := mc.MeetingModel.GetMeetingMembers(c.UserContext(), authContext(c), c.Params("id"), req)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.JSON(members)
}

// HandleSetPermissions takes a body mapping principal ids to a role, or to
// false to remove them.
func (mc *MeetingController) HandleSetPermissions(c *fiber.Ctx) error {
	changes := make(map[string]models.RoleChange)
	if err := parseBody(c, &changes); err != nil {
		return sendError(c, mc.logger, err)
	}

	err := mc.MeetingModel.SetMeetingPermissions(c.UserContext(), authContext(c), &models.SetMeetingPermissionsReq{
		MeetingId: c.Params("id"),
		Changes:   changes,
	})
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (mc *MeetingController) HandleGetMessages(c *fiber.Ctx) error {
	req, err := pageReq(c)
	if err != nil {
		return sendError(c, mc.logger, err)
	}

	messages, err := mc.MeetingModel.GetMessages(c.UserContext(), authContext(c), c.Params("id"), req)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.JSON(messages)
}

func (mc *MeetingController) HandleCreateMessage(c *fiber.Ctx) error {
	req := new(models.CreateMessageReq)
	if err := parseBody(c, req); err != nil {
		return sendError(c, mc.logger, err)
	}
	req.MeetingId = c.Params("id")

	msg, err := mc.MeetingModel.CreateMessage(c.UserContext(), authContext(c), req)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// HandleDeleteMessage returns the tombstone left in place of a message that
// has replies, or an empty body when the message was removed outright.
func (mc *MeetingController) HandleDeleteMessage(c *fiber.Ctx) error {
	created, err := strconv.ParseInt(c.Params("created"), 10, 64)
	if err != nil || created <= 0 {
		return sendError(c, mc.logger, helpers.NewValidationError(config.InvalidMessageCreated))
	}

	msg, err := mc.MeetingModel.DeleteMessage(c.UserContext(), authContext(c), c.Params("id"), created)
	if err != nil {
		return sendError(c, mc.logger, err)
	}
	if msg == nil {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.JSON(msg)
}
