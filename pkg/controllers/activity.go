package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/sirupsen/logrus"
)

type ActivityController struct {
	ActivityModel *models.ActivityModel
	logger        *logrus.Entry
}

func NewActivityController(am *models.ActivityModel, logger *logrus.Logger) *ActivityController {
	return &ActivityController{
		ActivityModel: am,
		logger:        logger.WithField("controller", "activity"),
	}
}

// HandleGetActivities returns the caller's activity stream, newest first.
func (ac *ActivityController) HandleGetActivities(c *fiber.Ctx) error {
	limit := 0
	if l := c.Query("limit"); l != "" {
		var err error
		if limit, err = strconv.Atoi(l); err != nil {
			return sendError(c, ac.logger, helpers.NewValidationError(config.InvalidLimit))
		}
	}

	stream, err := ac.ActivityModel.GetActivities(c.UserContext(), authContext(c), limit)
	if err != nil {
		return sendError(c, ac.logger, err)
	}
	return c.JSON(fiber.Map{
		"results": stream,
	})
}
