package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "EVENTMERGE"

// Configuration keys shared by the config file, environment and flags.
const (
	KeySheetID        = "sheet_id"
	KeySheetName      = "sheet_name"
	KeySheetURL       = "sheet_url"
	KeySheetAuth      = "sheet_auth"
	KeySheetToken     = "sheet_token"
	KeyCacheDir       = "cache_dir"
	KeyCacheTTL       = "cache_ttl"
	KeyHTTPTimeout    = "http_timeout"
	KeyBaseFile       = "base_file"
	KeyOutputFile     = "output_file"
	KeyProvenanceFile = "provenance_file"
	KeyMetricsFile    = "metrics_file"
	KeyMarker         = "marker"
	KeyNullValues     = "null_values"
	KeyCardinality    = "cardinality"
	KeyDryRun         = "dry_run"
	KeySummary        = "summary"
	KeyVerbose        = "verbose"
	KeyQuiet          = "quiet"
	KeyNoColor        = "no_color"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyLogOutput      = "log_output"
)

// Config holds the application configuration loaded from flags, environment
// variables, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Summary is the format of the run summary printed after a merge.
	Summary string

	// ConfigFile is the config file actually read, if any.
	ConfigFile string

	// Merge inputs and outputs
	SheetID        string
	SheetName      string
	SheetURL       string
	SheetAuth      string
	SheetToken     string
	CacheDir       string
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	BaseFile       string
	OutputFile     string
	ProvenanceFile string
	MetricsFile    string
	Marker         string
	NullValues     []string
	Cardinality    string
	DryRun         bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySheetID, constants.DefaultSheetID)
	v.SetDefault(KeySheetName, constants.DefaultSheetName)
	v.SetDefault(KeySheetAuth, "none")
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyBaseFile, constants.DefaultBaseFile)
	v.SetDefault(KeyOutputFile, constants.DefaultOutputFile)
	v.SetDefault(KeyMarker, constants.DefaultMarker)
	v.SetDefault(KeyCardinality, "one-to-one")
	v.SetDefault(KeySummary, "none")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")
	return v
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (bound to v by the root command)
// 2. Environment variables (EVENTMERGE_*)
// 3. .env files
// 4. Config file (./.eventmerge.yaml or ~/.eventmerge.yaml, or configFile)
// 5. Defaults
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	loadEnvFiles()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".eventmerge")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading config file", err)
			}
		}
	}

	return &Config{
		Verbose:        v.GetBool(KeyVerbose),
		Quiet:          v.GetBool(KeyQuiet),
		NoColor:        v.GetBool(KeyNoColor),
		Summary:        v.GetString(KeySummary),
		ConfigFile:     v.ConfigFileUsed(),
		SheetID:        v.GetString(KeySheetID),
		SheetName:      v.GetString(KeySheetName),
		SheetURL:       v.GetString(KeySheetURL),
		SheetAuth:      v.GetString(KeySheetAuth),
		SheetToken:     v.GetString(KeySheetToken),
		CacheDir:       v.GetString(KeyCacheDir),
		CacheTTL:       v.GetDuration(KeyCacheTTL),
		HTTPTimeout:    v.GetDuration(KeyHTTPTimeout),
		BaseFile:       v.GetString(KeyBaseFile),
		OutputFile:     v.GetString(KeyOutputFile),
		ProvenanceFile: v.GetString(KeyProvenanceFile),
		MetricsFile:    v.GetString(KeyMetricsFile),
		Marker:         v.GetString(KeyMarker),
		NullValues:     v.GetStringSlice(KeyNullValues),
		Cardinality:    v.GetString(KeyCardinality),
		DryRun:         v.GetBool(KeyDryRun),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		LogOutput:      v.GetString(KeyLogOutput),
	}, nil
}

// loadEnvFiles loads environment variables from .env files.
// godotenv never overrides variables that are already set, so .env.local
// only fills what .env left unset.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
