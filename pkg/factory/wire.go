//go:build wireinject
// +build wireinject

package factory

import (
	"context"

	"github.com/google/wire"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/controllers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/nats"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
)

// build the dependency set for services
var serviceSet = wire.NewSet(
	dbservice.New,
	redisservice.New,
	natsservice.New,
	bbbservice.NewProxy,
	bbbservice.NewClient,
	// the NATS service is the event bus of every model
	wire.Bind(new(events.Emitter), new(*natsservice.NatsService)),
	wire.Bind(new(events.Bus), new(*natsservice.NatsService)),
)

// build the dependency set for models
var modelSet = wire.NewSet(
	models.NewAuthModel,
	models.NewMeetingModel,
	models.NewBBBModel,
	models.NewActivityModel,
)

// build the dependency set for controllers
var controllerSet = wire.NewSet(
	controllers.NewAuthController,
	controllers.NewMeetingController,
	controllers.NewConferenceController,
	controllers.NewActivityController,
	controllers.NewHealthCheckController,
)

// NewAppFactory is the injector function that wire will implement.
func NewAppFactory(ctx context.Context, appConfig *config.AppConfig) (*Application, error) {
	wire.Build(
		serviceSet,
		modelSet,
		controllerSet,
		// Provide the whole AppConfig, and also specific fields needed by constructors.
		wire.FieldsOf(new(*config.AppConfig), "DB", "RDS", "Logger"),

		wire.Struct(new(ApplicationControllers), "*"),
		wire.Struct(new(Application), "*"),
	)
	return nil, nil // This return value is ignored.
}
