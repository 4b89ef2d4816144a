package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set output destination
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithRequestID creates a new logger entry with request ID field
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Logger.WithField("request_id", requestID)
}

// Decision logs the outcome of a validation decision in audit format
func (l *Logger) Decision(requestID, role, action, entityType string, allowed bool, reasonKind, reason string) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":       true,
		"request_id":  requestID,
		"role":        role,
		"action":      action,
		"entity_type": entityType,
		"allowed":     allowed,
		"reason_kind": reasonKind,
		"reason":      reason,
	})

	if allowed {
		entry.Info("Action allowed")
	} else {
		entry.Info("Action denied")
	}
}

// Reload logs the outcome of an ontology reload attempt
func (l *Logger) Reload(path string, ruleCount int, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"ontology": path,
		"rules":    ruleCount,
	})

	if err != nil {
		entry.WithError(err).Error("Ontology reload failed, previous index stays active")
		return
	}
	entry.Info("Ontology reloaded")
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(method, path, remoteAddr string, statusCode int, durationMS int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"remote_addr":  remoteAddr,
		"status_code":  statusCode,
		"duration_ms":  durationMS,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
