package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/eventmerge/pkg/errors"
)

// Format selects how the run summary is rendered.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatNone  Format = "none"
)

var formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatNone}

// ParseFormat validates a format name. The empty string and "auto" both
// return "", which DetectFormat resolves.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" || f == "auto" {
		return "", nil
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(formats))
	for i, known := range formats {
		names[i] = string(known)
	}
	return "", errors.NewConfigError("output",
		fmt.Sprintf("invalid format %q: must be one of: %s", s, strings.Join(names, ", ")), nil)
}

// DetectFormat returns explicit when set. Otherwise it picks a table when
// w is a terminal and JSON for anything else, such as a pipe or a buffer.
func DetectFormat(explicit Format, w io.Writer) Format {
	if explicit != "" {
		return explicit
	}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return FormatTable
		}
	}
	return FormatJSON
}
