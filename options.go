package eventmerge

import (
	"net/http"
	"time"

	"github.com/agentstation/eventmerge/internal/metrics"
	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/join"
)

// Option is a function that configures a Merger
type Option func(*config) error

// config holds the settings for one merge run
type config struct {
	// Overlay sheet
	sheetID       string
	sheetName     string
	sheetURL      string
	sheetAuth     string
	sheetToken    string
	sheetCacheDir string
	sheetCacheTTL time.Duration
	httpTimeout   time.Duration
	httpClient    *http.Client

	// Files
	baseFile       string
	outputFile     string
	provenanceFile string
	metricsFile    string

	// Pipeline
	marker      string
	nullValues  []string
	cardinality join.Cardinality
	dryRun      bool

	metrics *metrics.Manager
}

// defaultConfig returns the settings that reproduce the stock run.
func defaultConfig() *config {
	return &config{
		sheetID:     constants.DefaultSheetID,
		sheetName:   constants.DefaultSheetName,
		httpTimeout: constants.DefaultHTTPTimeout,
		baseFile:    constants.DefaultBaseFile,
		outputFile:  constants.DefaultOutputFile,
		marker:      constants.DefaultMarker,
		cardinality: join.OneToOne,
	}
}

// validate reports settings no run can succeed with.
func (c *config) validate() error {
	switch {
	case c.marker == "":
		return errors.NewConfigError("marker", "link marker cannot be empty", nil)
	case c.baseFile == "":
		return errors.NewConfigError("base_file", "base file cannot be empty", nil)
	case c.outputFile == "" && !c.dryRun:
		return errors.NewConfigError("output_file", "output file cannot be empty", nil)
	case c.sheetURL == "" && c.sheetID == "":
		return errors.NewConfigError("sheet", "sheet id or sheet url is required", nil)
	case c.httpTimeout < 0:
		return errors.NewConfigError("http_timeout", "timeout cannot be negative", nil)
	}
	return nil
}

// WithSheet selects the overlay spreadsheet and tab
func WithSheet(id, name string) Option {
	return func(c *config) error {
		c.sheetID = id
		c.sheetName = name
		return nil
	}
}

// WithSheetURL fetches the overlay from url instead of the sheet export URL
func WithSheetURL(url string) Option {
	return func(c *config) error {
		c.sheetURL = url
		return nil
	}
}

// WithSheetAuth authenticates sheet requests. scheme is one of "none",
// "bearer", "header:<name>" or "query:<param>".
func WithSheetAuth(scheme, token string) Option {
	return func(c *config) error {
		c.sheetAuth = scheme
		c.sheetToken = token
		return nil
	}
}

// WithSheetCache reuses a downloaded sheet from dir while it is younger than ttl
func WithSheetCache(dir string, ttl time.Duration) Option {
	return func(c *config) error {
		c.sheetCacheDir = dir
		c.sheetCacheTTL = ttl
		return nil
	}
}

// WithHTTPTimeout sets the timeout for the sheet download
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		c.httpTimeout = timeout
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for the sheet download
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}

// WithBaseFile sets the local base CSV
func WithBaseFile(path string) Option {
	return func(c *config) error {
		c.baseFile = path
		return nil
	}
}

// WithOutputFile sets the merged CSV destination
func WithOutputFile(path string) Option {
	return func(c *config) error {
		c.outputFile = path
		return nil
	}
}

// WithProvenanceFile writes per-cell provenance as YAML to path
func WithProvenanceFile(path string) Option {
	return func(c *config) error {
		c.provenanceFile = path
		return nil
	}
}

// WithMetricsFile writes run metrics in Prometheus text format to path
func WithMetricsFile(path string) Option {
	return func(c *config) error {
		c.metricsFile = path
		return nil
	}
}

// WithMetrics records run metrics in m
func WithMetrics(m *metrics.Manager) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithMarker sets the substring every kept registration link must contain
func WithMarker(marker string) Option {
	return func(c *config) error {
		c.marker = marker
		return nil
	}
}

// WithNullValues treats extra cell texts as null in both inputs
func WithNullValues(values ...string) Option {
	return func(c *config) error {
		c.nullValues = append(c.nullValues, values...)
		return nil
	}
}

// WithCardinality controls how repeated registration links are joined
func WithCardinality(cardinality join.Cardinality) Option {
	return func(c *config) error {
		if cardinality != join.OneToOne && cardinality != join.ManyToMany {
			return errors.NewValidationError("cardinality", cardinality, "unknown join cardinality")
		}
		c.cardinality = cardinality
		return nil
	}
}

// WithDryRun runs the whole pipeline but skips writing the output file
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}
