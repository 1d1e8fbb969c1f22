package eventmerge

import (
	"time"

	"github.com/agentstation/eventmerge/pkg/provenance"
)

// Result summarizes a merge run.
type Result struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	SheetURL   string `json:"sheet_url" yaml:"sheet_url"`
	BaseFile   string `json:"base_file" yaml:"base_file"`
	OutputFile string `json:"output_file,omitempty" yaml:"output_file,omitempty"`

	// Written is false for dry runs.
	Written bool `json:"written" yaml:"written"`

	// Columns is the output header in order.
	Columns []string `json:"columns" yaml:"columns"`

	Counts Counts `json:"counts" yaml:"counts"`

	// Fields counts, per reconciled field, the values each source supplied.
	Fields provenance.Summary `json:"fields" yaml:"fields"`

	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Counts holds row counts after each pipeline stage.
type Counts struct {
	BaseLoaded        int `json:"base_loaded" yaml:"base_loaded"`
	BaseKept          int `json:"base_kept" yaml:"base_kept"`
	OverlayLoaded     int `json:"overlay_loaded" yaml:"overlay_loaded"`
	OverlayKept       int `json:"overlay_kept" yaml:"overlay_kept"`
	Matched           int `json:"matched" yaml:"matched"`
	BaseUnmatched     int `json:"base_unmatched" yaml:"base_unmatched"`
	OverlayUnmatched  int `json:"overlay_unmatched" yaml:"overlay_unmatched"`
	BaseDuplicates    int `json:"base_duplicates" yaml:"base_duplicates"`
	OverlayDuplicates int `json:"overlay_duplicates" yaml:"overlay_duplicates"`
	Output            int `json:"output" yaml:"output"`
}
