package logger

import (
	"io"
	"os"
	"strings"

	"brimasouk/internal/config"

	log "github.com/sirupsen/logrus"
)

// New builds the process logger from the LOG_LEVEL/LOG_FORMAT settings.
// Unknown levels fall back to info.
func New(cfg config.Log) *log.Logger {
	return newWithOutput(cfg, os.Stdout)
}

func newWithOutput(cfg config.Log, out io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(out)

	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&log.JSONFormatter{})
	}

	return l
}
