package project

import (
	"fmt"
	"time"

	"datapresso/pkg/logging"
)

// Level is the severity of a Notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Kind says what a Notification is about.
type Kind string

const (
	KindOpened         Kind = "Opened"
	KindNewProject     Kind = "NewProject"
	KindFormatError    Kind = "FormatError"
	KindSaved          Kind = "Saved"
	KindStorageFailure Kind = "StorageFailure"
	KindReloaded       Kind = "Reloaded"
	KindCreated        Kind = "Created"
	KindClosed         Kind = "Closed"
)

// Notification is a transient, user-facing message about a project event.
type Notification struct {
	Level   Level
	Kind    Kind
	Message string
	Err     error
	Time    time.Time
}

// Notifier receives notifications. Implementations must not block for long.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

func (m *Manager) notify(level Level, kind Kind, err error, format string, args ...any) {
	n := Notification{
		Level: level,
		Kind:  kind,
		Err:   err,
		Time:  m.now(),
	}
	n.Message = format
	if len(args) > 0 {
		n.Message = fmt.Sprintf(format, args...)
	}

	switch level {
	case LevelError:
		logging.Error("Project", err, "%s", n.Message)
	case LevelWarning:
		logging.Warn("Project", "%s", n.Message)
	default:
		logging.Info("Project", "%s", n.Message)
	}
	m.notifier.Notify(n)
}
