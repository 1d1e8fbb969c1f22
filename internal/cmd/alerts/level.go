package alerts

import (
	"fmt"

	"github.com/agentstation/eventmerge/internal/cmd/emoji"
)

// Level is an alert's severity. Higher values are less severe.
type Level int

// Alert levels.
const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

const resetColor = "\033[0m"

type levelStyle struct {
	name  string
	icon  string
	color string
}

var levelStyles = map[Level]levelStyle{
	LevelError:   {"error", emoji.Error, "\033[31m"},
	LevelWarning: {"warning", emoji.Warning, "\033[33m"},
	LevelInfo:    {"info", emoji.Info, "\033[36m"},
	LevelSuccess: {"success", emoji.Success, "\033[32m"},
}

// String returns the level name used in JSON and YAML alerts.
func (l Level) String() string {
	if s, ok := levelStyles[l]; ok {
		return s.name
	}
	return fmt.Sprintf("unknown(%d)", int(l))
}

// Icon is the emoji shown when an alert sets no icon of its own.
func (l Level) Icon() string {
	if s, ok := levelStyles[l]; ok {
		return s.icon
	}
	return emoji.Info
}

// Color is the ANSI escape that starts the level's terminal color.
func (l Level) Color() string {
	if s, ok := levelStyles[l]; ok {
		return s.color
	}
	return resetColor
}
