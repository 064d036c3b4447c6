// Package logx is the structured logger the bridge package logs through
// (frame's unknown-command warning goes to logrus's standard logger
// instead). It wraps a single package-level *logrus.Logger the way the
// teacher's plank/utils logger wraps one for an HTTP server, trimmed down to
// what a connection-oriented client library actually needs: no access/error
// log file plumbing, just fields.
package logx

import (
	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance. Callers that want JSON output, a
// different level, or a different writer mutate this directly — there is no
// config struct, unlike the teacher's web-server logger, because a library
// has no log files of its own to open.
var Log = logrus.New()

// Conn returns an entry pre-populated with the connection id, for every log
// line the bridge package emits about a specific connection.
func Conn(connID string) *logrus.Entry {
	return Log.WithField("conn", connID)
}

// Frame returns an entry pre-populated with the command and destination of
// f, used by the bridge when logging about a specific frame.
func Frame(command, destination string) *logrus.Entry {
	e := Log.WithField("command", command)
	if destination != "" {
		e = e.WithField("destination", destination)
	}
	return e
}
