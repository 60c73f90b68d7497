package log

import (
	"fmt"
	"io"
	"os"

	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
)

var logger logr.Logger

// Init configures the process wide logger. Diagnostics are written to stdout.
func Init(conf config.Logs) error {
	ret, err := New(conf, os.Stdout)
	if err != nil {
		return err
	}

	logger = ret

	return nil
}

// New builds a logger writing to out without touching the process wide one.
func New(conf config.Logs, out io.Writer) (logr.Logger, error) {
	loggerImpl := logrus.New()

	loggerImpl.SetLevel(logrus.Level(conf.Level + int(logrus.InfoLevel)))
	loggerImpl.SetOutput(out)

	switch conf.Encoder {
	case config.EncoderTypeConsole:
		loggerImpl.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
		})
	case config.EncoderTypeJson:
		loggerImpl.SetFormatter(&logrus.JSONFormatter{})
	default:
		return logr.Discard(), fmt.Errorf("unexpected encoder value %v", conf.Encoder)
	}

	return logrusr.New(loggerImpl, logrusr.WithReportCaller()), nil
}

// Logger returns the process wide logger. It discards everything until Init is called.
func Logger() logr.Logger {
	return logger
}
