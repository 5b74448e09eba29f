// Package nettflog is the logging collaborator (spec §6): optional,
// and a no-op until Init is called, exactly as the specification
// requires. It wraps a *logrus.Logger the same way rclone's own
// fs/log package wraps logrus for its frame-level diagnostics.
package nettflog

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = newDiscardLogger()
)

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Init wires the package to an actual sink. Until this is called every
// Info/Error call is a true no-op (writes to io.Discard), matching the
// "must be a no-op if the sink was not initialized" requirement.
func Init(w io.Writer, level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger = l
}

// Info logs a frame-start/frame-end style diagnostic at INFO.
func Info(fields logrus.Fields, msg string) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithFields(fields).Info(msg)
}

// Error logs a failure diagnostic at ERROR.
func Error(fields logrus.Fields, msg string) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithFields(fields).Error(msg)
}
