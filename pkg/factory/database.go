package factory

import (
	"context"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// buildDSN formats the connection string of a MySQL server.
func buildDSN(info config.DatabaseInfo, host string, port int32, username, password string) (string, error) {
	charset := "utf8mb4"
	loc := time.UTC

	if info.Charset != nil && *info.Charset != "" {
		charset = *info.Charset
	}
	if info.Loc != nil && *info.Loc != "" {
		l, err := time.LoadLocation(*info.Loc)
		if err != nil {
			return "", fmt.Errorf("invalid database loc %q: %w", *info.Loc, err)
		}
		loc = l
	}

	cnf := mysqldriver.NewConfig()
	cnf.User = username
	cnf.Passwd = password
	cnf.Net = "tcp"
	cnf.Addr = fmt.Sprintf("%s:%d", host, port)
	cnf.DBName = info.DBName
	cnf.ParseTime = true
	cnf.Loc = loc
	cnf.Params = map[string]string{
		"charset": charset,
	}

	return cnf.FormatDSN(), nil
}

func NewDatabaseConnection(ctx context.Context, appCnf *config.AppConfig) error {
	info := appCnf.DatabaseInfo
	dsn, err := buildDSN(info, info.Host, info.Port, info.Username, info.Password)
	if err != nil {
		return err
	}

	mysqlCnf := mysql.Config{
		DSN: dsn, // data source name
	}
	cnf := &gorm.Config{}

	loggerCnf := logger.Config{
		SlowThreshold:             time.Second, // Slow SQL threshold
		LogLevel:                  logger.Info,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      false,
		Colorful:                  true,
	}
	if !appCnf.Client.Debug {
		loggerCnf.LogLevel = logger.Warn
		loggerCnf.Colorful = false
	}
	cnf.Logger = logger.New(appCnf.Logger, loggerCnf)

	db, err := gorm.Open(mysql.New(mysqlCnf), cnf)
	if err != nil {
		return err
	}

	// If read replicas are configured, set up the dbresolver.
	if len(info.Replicas) > 0 {
		appCnf.Logger.Infof("found %d read replicas, configuring dbresolver", len(info.Replicas))
		var replicaDialectors []gorm.Dialector

		for _, r := range info.Replicas {
			// Use primary's settings as default for replicas if not specified.
			if r.Username == "" {
				r.Username = info.Username
			}
			if r.Password == "" {
				r.Password = info.Password
			}
			if r.Port == 0 {
				r.Port = info.Port
			}

			replicaDsn, err := buildDSN(info, r.Host, r.Port, r.Username, r.Password)
			if err != nil {
				return err
			}
			replicaDialectors = append(replicaDialectors, mysql.Open(replicaDsn))
		}
		resolverCnf := dbresolver.Config{
			Replicas: replicaDialectors,
			Policy:   dbresolver.RandomPolicy{},
		}
		if appCnf.Client.Debug {
			resolverCnf.TraceResolverMode = true
		}

		err = db.Use(dbresolver.Register(resolverCnf))
		if err != nil {
			return err
		}
	}

	d, err := db.DB()
	if err != nil {
		return err
	}
	err = d.PingContext(ctx)
	if err != nil {
		return err
	}

	connMaxLifetime := time.Minute * 4
	if info.ConnMaxLifetime != nil && *info.ConnMaxLifetime > 0 {
		connMaxLifetime = *info.ConnMaxLifetime
	}
	maxOpenConns := 10
	if info.MaxOpenConns != nil && *info.MaxOpenConns > 0 {
		maxOpenConns = *info.MaxOpenConns
	}

	// https://github.com/go-sql-driver/mysql?tab=readme-ov-file#important-settings
	d.SetConnMaxLifetime(connMaxLifetime)
	d.SetMaxOpenConns(maxOpenConns)
	d.SetMaxIdleConns(maxOpenConns)

	appCnf.DB = db
	return nil
}
