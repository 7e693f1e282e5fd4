package logging

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/DeRuina/timberjack"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger. Output always goes to stdout and,
// when a log file is configured, to a rotated file as well.
func NewLogger(cfg *config.LogSettings, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(parseLevel(cfg.LogLevel, debug))

	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		output = io.MultiWriter(os.Stdout, &timberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		})
	}
	logger.SetOutput(output)

	logger.SetFormatter(&SourceFormatter{
		Underlying: &logrus.TextFormatter{
			FullTimestamp: true,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				return "", ""
			},
		},
	})
	logger.SetReportCaller(true)

	if cfg.LogFile != "" {
		logger.WithField("file", cfg.LogFile).Infoln("file logging enabled")
	}
	return logger
}

func parseLevel(level *string, debug bool) logrus.Level {
	if level != nil && *level != "" {
		if lv, err := logrus.ParseLevel(strings.ToLower(*level)); err == nil {
			return lv
		}
	}
	if debug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
