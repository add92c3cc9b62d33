// Package logging constructs the application logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at the given level. Unknown levels
// fall back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
