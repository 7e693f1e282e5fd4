package routers

import (
	"io"
	"runtime"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/factory"
	"github.com/mynaparrot/plugnmeet-meetings/version"
)

// router holds the dependencies for setting up routes.
type router struct {
	app  *fiber.App
	ctrl *factory.ApplicationControllers
}

func New(appConfig *config.AppConfig, ctrl *factory.ApplicationControllers) *fiber.App {
	// --- Fiber App Configuration ---
	cnf := fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		AppName:     "plugNmeet meetings version: " + version.Version + " runtime: " + runtime.Version(),
	}

	if appConfig.Client.ProxyHeader != "" {
		cnf.ProxyHeader = appConfig.Client.ProxyHeader
	}

	// --- App Initialization & Middleware ---
	app := fiber.New(cnf)

	app.Use(logger.New(logger.Config{
		Done: func(c *fiber.Ctx, logString []byte) {
			appConfig.Logger.Debugln(string(logString))
		},
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}",
		Output: io.Discard,
	}))

	if appConfig.Client.PrometheusConf.Enable {
		prometheus := fiberprometheus.New("plugNmeet_meetings")
		prometheus.RegisterAt(app, appConfig.Client.PrometheusConf.MetricsPath)
		app.Use(prometheus.Middleware)
	}

	app.Use(rr.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "POST,GET,PATCH,DELETE,OPTIONS",
	}))

	// --- Route Registration ---
	r := &router{
		app:  app,
		ctrl: ctrl,
	}

	r.registerBaseRoutes()
	r.registerAuthRoutes()
	r.registerAPIRoutes()

	// --- Final Catch-All 404 Handler ---
	// This MUST be the last middleware to be registered.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	})

	return app
}

func (r *router) registerBaseRoutes() {
	r.app.Get("/healthCheck", r.ctrl.HealthCheckController.HandleHealthCheck)
	// called by BBB once a meetup recording has been processed
	r.app.Post("/meetup/:groupId/recording", r.ctrl.ConferenceController.HandleMeetupRecordingReady)
}

func (r *router) registerAuthRoutes() {
	auth := r.app.Group("/auth", r.ctrl.AuthController.HandleAuthHeaderCheck)
	auth.Post("/token", r.ctrl.AuthController.HandleIssueToken)
	auth.Post("/principal", r.ctrl.AuthController.HandleUpsertPrincipal)
	auth.Post("/group/members", r.ctrl.AuthController.HandleSetGroupMembers)
	auth.Post("/signature/verify", r.ctrl.AuthController.HandleVerifySignature)
}

func (r *router) registerAPIRoutes() {
	api := r.app.Group("/api", r.ctrl.AuthController.HandleBuildContext)
	api.Get("/activity", r.ctrl.ActivityController.HandleGetActivities)

	meeting := api.Group("/meeting")
	// static segments first so they never match as a meeting id
	meeting.Post("/create", r.ctrl.MeetingController.HandleCreateMeeting)
	meeting.Get("/library/:principalId", r.ctrl.MeetingController.HandleGetLibrary)
	meeting.Delete("/library/:principalId/:meetingId", r.ctrl.MeetingController.HandleRemoveFromLibrary)

	meeting.Get("/:id", r.ctrl.MeetingController.HandleGetMeeting)
	meeting.Post("/:id", r.ctrl.MeetingController.HandleUpdateMeeting)
	meeting.Delete("/:id", r.ctrl.MeetingController.HandleDeleteMeeting)
	meeting.Post("/:id/share", r.ctrl.MeetingController.HandleShareMeeting)
	meeting.Get("/:id/members", r.ctrl.MeetingController.HandleGetMembers)
	meeting.Post("/:id/members", r.ctrl.MeetingController.HandleSetPermissions)
	meeting.Get("/:id/messages", r.ctrl.MeetingController.HandleGetMessages)
	meeting.Post("/:id/messages", r.ctrl.MeetingController.HandleCreateMessage)
	meeting.Delete("/:id/messages/:created", r.ctrl.MeetingController.HandleDeleteMessage)

	meeting.Get("/:id/join", r.ctrl.ConferenceController.HandleJoinMeeting)
	meeting.Get("/:id/info", r.ctrl.ConferenceController.HandleMeetingInfo)
	meeting.Get("/:id/end", r.ctrl.ConferenceController.HandleEndMeeting)

	meetup := api.Group("/meetup")
	meetup.Get("/:groupId/join", r.ctrl.ConferenceController.HandleJoinMeetup)
	meetup.Get("/:groupId/close", r.ctrl.ConferenceController.HandleCloseMeetup)

	recording := api.Group("/recording")
	recording.Get("/:id", r.ctrl.ConferenceController.HandleGetRecordings)
	recording.Delete("/:id", r.ctrl.ConferenceController.HandleDeleteRecording)
	recording.Patch("/:id", r.ctrl.ConferenceController.HandleUpdateRecording)
}
