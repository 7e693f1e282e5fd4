package helpers

import (
	"context"
	"fmt"
	"os"

	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/factory"
	"gopkg.in/yaml.v3"
)

// PrepareServer opens the database, redis and NATS connections and brings
// the schema up to date.
func PrepareServer(ctx context.Context, appCnf *config.AppConfig) error {
	// orm
	err := factory.NewDatabaseConnection(ctx, appCnf)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err = dbmodels.Migrate(appCnf.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// set redis connection
	err = factory.NewRedisConnection(ctx, appCnf)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	err = factory.NewNatsConnection(appCnf)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}

	return nil
}

func ReadYamlConfigFile(filename string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	err = yaml.Unmarshal(yamlFile, appCnf)
	if err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// set the root path
	appCnf.RootWorkingDir = wd

	return config.New(appCnf)
}
