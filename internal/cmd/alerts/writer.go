package alerts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/eventmerge/internal/cmd/output"
)

// WriterConfig controls what a FormatWriter includes.
type WriterConfig struct {
	ShowTimestamp bool
	ShowDetails   bool
	UseColor      bool
}

// FormatWriter renders alerts as plain lines, JSON objects or YAML documents.
type FormatWriter struct {
	w      io.Writer
	format output.Format
	cfg    WriterConfig
}

// NewFormatWriter writes alerts to w. Details are shown, and color is
// used only when w is a terminal.
func NewFormatWriter(w io.Writer, format output.Format) *FormatWriter {
	return &FormatWriter{
		w:      w,
		format: format,
		cfg:    WriterConfig{ShowDetails: true, UseColor: colorCapable(w)},
	}
}

// WithConfig replaces the writer's configuration.
func (fw *FormatWriter) WithConfig(cfg WriterConfig) *FormatWriter {
	fw.cfg = cfg
	return fw
}

// WriteAlert implements Writer.
func (fw *FormatWriter) WriteAlert(a *Alert) error {
	switch fw.format {
	case output.FormatNone:
		return nil
	case output.FormatJSON:
		return json.NewEncoder(fw.w).Encode(fw.record(a))
	case output.FormatYAML:
		b, err := yaml.Marshal(fw.record(a))
		if err != nil {
			return err
		}
		_, err = io.WriteString(fw.w, "---\n"+string(b))
		return err
	default:
		_, err := io.WriteString(fw.w, fw.line(a))
		return err
	}
}

// record is the structured form of an alert.
type record struct {
	Level     string   `json:"level" yaml:"level"`
	Message   string   `json:"message" yaml:"message"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (fw *FormatWriter) record(a *Alert) record {
	r := record{Level: a.Level.String(), Message: a.Message, Details: a.Details}
	if a.Err != nil {
		r.Error = a.Err.Error()
	}
	if fw.cfg.ShowTimestamp {
		r.Timestamp = a.Timestamp.Format(time.RFC3339)
	}
	return r
}

// line renders the plain form: the alert on one line, then each detail
// indented beneath it.
func (fw *FormatWriter) line(a *Alert) string {
	var b strings.Builder
	if fw.cfg.UseColor {
		b.WriteString(a.Level.Color())
	}
	b.WriteString(a.String())
	if fw.cfg.UseColor {
		b.WriteString(resetColor)
	}
	b.WriteByte('\n')
	if fw.cfg.ShowDetails {
		for _, d := range a.Details {
			fmt.Fprintf(&b, "   %s\n", d)
		}
	}
	return b.String()
}

func colorCapable(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
