package bootstrap

import (
	"os"

	"go-healthcare-practice/config"

	"github.com/sirupsen/logrus"
)

// NewLogger configures logrus from the app settings. Production logs are
// JSON, everything else uses the text formatter.
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.Env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
