// Package alerts renders merge progress and failures as short, iconified
// status lines for the terminal.
package alerts

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agentstation/eventmerge"
	"github.com/agentstation/eventmerge/internal/cmd/emoji"
)

// Alert is one status line plus optional detail lines.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error

	// Icon replaces Level.Icon() when non-empty.
	Icon string
}

// New returns an alert stamped with the current time.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message, Timestamp: time.Now()}
}

// NewError creates an error alert.
func NewError(message string) *Alert { return New(LevelError, message) }

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert { return New(LevelWarning, message) }

// NewInfo creates an info alert.
func NewInfo(message string) *Alert { return New(LevelInfo, message) }

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert { return New(LevelSuccess, message) }

var stageIcons = map[eventmerge.Stage]string{
	eventmerge.StageFetch: emoji.Download,
	eventmerge.StageJoin:  emoji.Link,
	eventmerge.StageWrite: emoji.Stats,
}

// FromEvent turns a merge progress event into an alert. Completion events
// are successes; the rest are info alerts iconified by stage.
func FromEvent(e eventmerge.Event) *Alert {
	if e.Success {
		return NewSuccess(e.Message)
	}
	a := NewInfo(e.Message)
	a.Icon = stageIcons[e.Stage]
	return a
}

// WithError attaches the cause, which String appends after a colon.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders "<icon> <message>[: <err>]".
func (a *Alert) String() string {
	icon := a.Icon
	if icon == "" {
		icon = a.Level.Icon()
	}
	var b strings.Builder
	b.WriteString(icon)
	b.WriteByte(' ')
	b.WriteString(a.Message)
	if a.Err != nil {
		b.WriteString(": ")
		b.WriteString(a.Err.Error())
	}
	return b.String()
}

// Writer is a destination for alerts.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc lets a plain function act as a Writer.
type WriterFunc func(*Alert) error

// WriteAlert calls f.
func (f WriterFunc) WriteAlert(alert *Alert) error { return f(alert) }

// DiscardWriter drops every alert.
var DiscardWriter Writer = WriterFunc(func(*Alert) error { return nil })

// MultiWriter fans an alert out to each writer in order, stopping at the
// first error.
func MultiWriter(writers ...Writer) Writer {
	return WriterFunc(func(alert *Alert) error {
		for _, w := range writers {
			if err := w.WriteAlert(alert); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewWriterTo writes each alert's String form as a line to w.
func NewWriterTo(w io.Writer) Writer {
	return WriterFunc(func(alert *Alert) error {
		_, err := fmt.Fprintln(w, alert)
		return err
	})
}
