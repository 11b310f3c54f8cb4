// Package logging provides per-module loggers backed by a shared logrus
// master logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

const moduleKey = "_module"

var master = logrus.New()

// Logger is a module-scoped logger.
type Logger struct {
	*logrus.Entry
}

// MustGetLogger returns a logger tagged with the given module name.
func MustGetLogger(module string) *Logger {
	return &Logger{master.WithField(moduleKey, module)}
}

// SetLevel sets the level of the master logger.
func SetLevel(level logrus.Level) {
	master.SetLevel(level)
}

// LevelFromString parses a logrus level name.
func LevelFromString(s string) (logrus.Level, error) {
	return logrus.ParseLevel(s)
}

// AddHook attaches a hook to the master logger.
func AddHook(hook logrus.Hook) {
	master.AddHook(hook)
}
