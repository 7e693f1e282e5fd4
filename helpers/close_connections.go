package helpers

import (
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
)

func HandleCloseConnections(appCnf *config.AppConfig) {
	if appCnf == nil {
		return
	}

	if appCnf.NatsConn != nil {
		if err := appCnf.NatsConn.Drain(); err != nil {
			appCnf.Logger.WithError(err).Warnln("failed to drain NATS connection")
		}
	}

	// handle to close DB connection
	if appCnf.DB != nil {
		if db, err := appCnf.DB.DB(); err == nil {
			_ = db.Close()
		}
	}

	// close redis
	if appCnf.RDS != nil {
		_ = appCnf.RDS.Close()
	}
}
