// Package constants provides shared constants used throughout eventmerge.
// This includes the default inputs and outputs of a merge run, column names,
// timeouts, and file permissions.
package constants

import "time"

// DefaultHTTPTimeout is the standard timeout for fetching the overlay sheet
const DefaultHTTPTimeout = 30 * time.Second

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default inputs and outputs of a merge run.
const (
	// DefaultSheetID is the Google Sheet holding the categorized overlay.
	DefaultSheetID = "1gd7YM2YtBj15IOun7OD7Gs-EkV06u8IscgS67P4Fet0"

	// DefaultSheetName is the tab exported from the sheet.
	DefaultSheetName = "Sheet1"

	// SheetURLTemplate is the gviz CSV export endpoint. Arguments are the
	// sheet ID and the (escaped) sheet name.
	SheetURLTemplate = "https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s"

	// DefaultBaseFile is the enriched base table in the working directory.
	DefaultBaseFile = "ETHDenver2025_LumaOnly_Enriched.csv"

	// DefaultOutputFile is where the merged table is written.
	DefaultOutputFile = "ETHDenver2025_LumaOnly_Enriched_Final.csv"

	// DefaultMarker is the event-platform fragment a registration link must contain.
	DefaultMarker = "lu.ma"
)

// Column names after normalization.
const (
	ColumnBaseLink     = "registration_url"
	ColumnOverlayLink  = "registration"
	ColumnDescription  = "description"
	ColumnAttendees    = "attendees_shown"
	ColumnCategories   = "categories"
	LeftSuffix         = "_x"
	RightSuffix        = "_y"
	SourceNameBase     = "base"
	SourceNameOverlay  = "overlay"
	ProviderNameSheets = "google-sheets"
)
