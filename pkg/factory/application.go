package factory

import (
	"context"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/controllers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
)

// ApplicationControllers holds all the controllers.
type ApplicationControllers struct {
	AuthController        *controllers.AuthController
	MeetingController     *controllers.MeetingController
	ConferenceController  *controllers.ConferenceController
	ActivityController    *controllers.ActivityController
	HealthCheckController *controllers.HealthCheckController
}

// Application is the root struct holding all dependencies.
type Application struct {
	Controllers   *ApplicationControllers
	AppConfig     *config.AppConfig
	Ctx           context.Context
	meetingModel  *models.MeetingModel
	bbbModel      *models.BBBModel
	activityModel *models.ActivityModel
}

// Boot starts the background consumers.
func (a *Application) Boot() error {
	// activity streams are fed from the event bus
	return a.activityModel.Start()
}

// ReindexLibraries rebuilds every library from the stored meetings.
func (a *Application) ReindexLibraries(ctx context.Context) (int, error) {
	return a.meetingModel.ReindexLibraries(ctx)
}

// Shutdown stops consuming events and waits for pending background work.
func (a *Application) Shutdown() {
	a.activityModel.Stop()
	a.bbbModel.WaitForPolls()
	a.meetingModel.Shutdown()
}
