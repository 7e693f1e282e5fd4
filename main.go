package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mynaparrot/plugnmeet-meetings/helpers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/factory"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/logging"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/routers"
	"github.com/mynaparrot/plugnmeet-meetings/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	cli.VersionPrinter = func(c *cli.Command) {
		fmt.Printf("%s\n", c.Version)
	}

	app := &cli.Command{
		Name:        "plugnmeet-meetings",
		Usage:       "Meetings with BigBlueButton conferencing for plugNmeet tenants",
		Description: "without option will start server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Configuration file",
				DefaultText: "config.yaml",
				Value:       "config.yaml",
			},
		},
		Action: startServer,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the REST server",
				Action: startServer,
			},
			{
				Name:   "reindex-libraries",
				Usage:  "rebuild every meeting library from the stored meetings",
				Action: reindexLibraries,
			},
		},
		Version: version.Version,
	}
	err := app.Run(context.Background(), os.Args)
	if err != nil {
		logrus.Fatalln(err)
	}
}

// bootstrap reads the configuration and connects every backing service.
func bootstrap(ctx context.Context, c *cli.Command) (*factory.Application, error) {
	appCnf, err := helpers.ReadYamlConfigFile(c.String("config"))
	if err != nil {
		return nil, err
	}

	appCnf.Logger = logging.NewLogger(&appCnf.LogSettings, appCnf.Client.Debug)

	// now prepare our server
	err = helpers.PrepareServer(ctx, appCnf)
	if err != nil {
		helpers.HandleCloseConnections(appCnf)
		return nil, err
	}

	appFactory, err := factory.NewAppFactory(ctx, appCnf)
	if err != nil {
		helpers.HandleCloseConnections(appCnf)
		return nil, err
	}
	return appFactory, nil
}

func startServer(ctx context.Context, c *cli.Command) error {
	appFactory, err := bootstrap(ctx, c)
	if err != nil {
		return err
	}
	appCnf := appFactory.AppConfig
	logger := appCnf.Logger

	// boot up some services
	if err = appFactory.Boot(); err != nil {
		helpers.HandleCloseConnections(appCnf)
		return err
	}

	rt := routers.New(appCnf, appFactory.Controllers)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig).Infoln("exit requested, shutting down")
		_ = rt.Shutdown()
	}()

	err = rt.Listen(fmt.Sprintf(":%d", appCnf.Client.Port))

	appFactory.Shutdown()
	helpers.HandleCloseConnections(appCnf)
	return err
}

func reindexLibraries(ctx context.Context, c *cli.Command) error {
	appFactory, err := bootstrap(ctx, c)
	if err != nil {
		return err
	}
	defer helpers.HandleCloseConnections(appFactory.AppConfig)
	defer appFactory.Shutdown()

	total, err := appFactory.ReindexLibraries(ctx)
	if err != nil {
		return err
	}
	appFactory.AppConfig.Logger.WithField("meetings", total).Infoln("library reindex finished")
	return nil
}
