// Package log provides loggers for bark packages.
package log

import (
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	debug   bool
	loggers []*logrus.Logger
)

// Logger is a global interface for bark loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	WithFields(logrus.Fields) *logrus.Entry
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("BARK_DEBUG"))
	if err != nil {
		debug = false
	}
}

func level() logrus.Level {
	if debug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// SetDebug switches debug level for all loggers.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
	for _, l := range loggers {
		l.SetLevel(level())
	}
}

// GetLogger returns a new logger instance. Debug level is enabled with
// BARK_DEBUG environment variable or SetDebug.
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logrus.New()
	l.SetLevel(level())
	loggers = append(loggers, l)
	return l
}
