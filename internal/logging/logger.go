package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger tagged with the component name to simplify traceability.
func New(component string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	if component == "" {
		return logrus.NewEntry(logger)
	}
	return logger.WithField("component", component)
}

// SetLevel applies a logrus level name such as "debug" or "warn".
func SetLevel(entry *logrus.Entry, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	entry.Logger.SetLevel(lvl)
	return nil
}
