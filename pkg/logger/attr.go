package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under "errors", keyed by their position.
// Returns an empty Attr when every error is nil.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". Nil errors produce an empty Attr, so callers
// can pass a possibly nil error without checking.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id".
// Empty identifiers produce an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Component records the emitting subsystem under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records an enrollment lifecycle event under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Method records the verification method ("totp", "backup_code") under "method".
func Method(name string) slog.Attr {
	return slog.String("method", name)
}

// Outcome records an operation outcome under "outcome".
func Outcome(kind string) slog.Attr {
	return slog.String("outcome", kind)
}

// Store records the storage backend name under "store".
func Store(name string) slog.Attr {
	return slog.String("store", name)
}

// Duration records a duration under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
