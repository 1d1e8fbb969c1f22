package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// Recorder captures JSON log lines for assertions in tests.
type Recorder struct {
	Logger *zerolog.Logger
	buf    bytes.Buffer
}

// NewRecorder returns a recorder whose logger accepts every level. The
// global level is restored when t ends.
func NewRecorder(t testing.TB) *Recorder {
	t.Helper()

	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	r := &Recorder{}
	logger := zerolog.New(&r.buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	r.Logger = &logger
	return r
}

// Capture installs a recorder as the default logger until t ends.
func Capture(t testing.TB) *Recorder {
	t.Helper()

	prev := defaultLogger
	r := NewRecorder(t)
	SetDefault(*r.Logger)
	t.Cleanup(func() { SetDefault(prev) })
	return r
}

// String returns everything logged so far.
func (r *Recorder) String() string {
	return r.buf.String()
}

// Entries decodes each captured line. Lines that are not JSON are skipped.
func (r *Recorder) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(r.buf.String()), "\n") {
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Messages returns the msg field of each entry in order.
func (r *Recorder) Messages() []string {
	var msgs []string
	for _, e := range r.Entries() {
		if m, ok := e[zerolog.MessageFieldName].(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Reset drops captured output.
func (r *Recorder) Reset() {
	r.buf.Reset()
}
