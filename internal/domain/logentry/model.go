package logentry

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a stored log entry. Once appended it is never mutated;
// Sequence is the sole ordering key (timestamps are display-only since
// producers may be clock-skewed).
type Entry struct {
	ID        string            `json:"id"`
	Sequence  int64             `json:"sequence"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	UserID    string            `json:"userId,omitempty"`
	DeviceID  string            `json:"deviceId"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	File      string            `json:"file,omitempty"`
	Function  string            `json:"function,omitempty"`
	Line      int               `json:"line,omitempty"`
}

// SubmitRequest is the inbound payload for a single entry. Missing id
// and timestamp are assigned at commit time.
type SubmitRequest struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level" validate:"required"`
	Message   string            `json:"message" validate:"required"`
	DeviceID  string            `json:"deviceId"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata"`
	Tags      []string          `json:"tags"`
	File      string            `json:"file"`
	Function  string            `json:"function"`
	Line      int               `json:"line"`
}

// Level is an ordered severity.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = [...]string{"trace", "debug", "info", "notice", "warning", "error", "critical"}

// Levels lists all severities in ascending order.
func Levels() []Level {
	return []Level{LevelTrace, LevelDebug, LevelInfo, LevelNotice, LevelWarning, LevelError, LevelCritical}
}

func (l Level) String() string {
	if l < LevelTrace || l > LevelCritical {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to its severity. Unrecognized names are
// an error; the gateway rejects them instead of defaulting.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}
