// Package logging builds the single logrus.Entry every component in a
// run logs through, pre-populated with the run's identity rather than
// held as a package-global logger (spec.md §9's "no process-wide
// mutable state"), departing here from the teacher's debug/log package
// singleton for that reason.
package logging

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// timeStampFormat matches the teacher's debug/log package: fixed-width
// nanosecond timestamps rather than RFC3339Nano's trailing-zero
// trimming, for easier log-line alignment.
const timeStampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// New builds a *logrus.Entry at level, carrying run_id and component
// fields on every line it emits.
func New(level logrus.Level, runID uuid.UUID, component string) *logrus.Entry {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  timeStampFormat,
		DisableSorting:   true,
		QuoteEmptyFields: true,
	})
	return l.WithFields(logrus.Fields{
		"run_id":    runID.String(),
		"component": component,
	})
}
