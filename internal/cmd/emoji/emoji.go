// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols used by alerts and progress lines.
const (
	// Success marks a completed operation.
	Success = "✅"

	// Error marks a failed operation.
	Error = "❌"

	// Warning marks a non-fatal issue.
	Warning = "⚠️"

	// Download marks a network fetch in progress.
	Download = "📥"

	// Link marks a join or match result.
	Link = "🔗"

	// Stats marks a count or summary line.
	Stats = "📊"

	// Info marks a general note.
	Info = "ℹ️"
)
