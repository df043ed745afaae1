package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logrus hands out contextual entries for the monitor components
type Logrus struct {
	level  string
	output io.Writer
	logger *logrus.Logger
}

// NewLogrus creates a new logrus instance
func NewLogrus(level string, output io.Writer) *Logrus {
	log := logrus.New()
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		parsedLevel = logrus.InfoLevel
	}
	log.SetLevel(parsedLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(output)
	return &Logrus{level: level, output: output, logger: log}
}

// Get returns an entry tagged with the component that logs through it
func (l *Logrus) Get(component string) *logrus.Entry {
	return l.logger.WithFields(logrus.Fields{
		"Component": component,
	})
}
