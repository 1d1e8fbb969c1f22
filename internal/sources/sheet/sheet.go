// Package sheet loads a source table from a published Google Sheets tab
// through the gviz CSV export endpoint.
package sheet

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/eventmerge/internal/sources"
	"github.com/agentstation/eventmerge/internal/transport"
	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/logging"
	"github.com/agentstation/eventmerge/pkg/table"
)

// URL builds the CSV export address for one tab of a sheet.
func URL(sheetID, sheetName string) string {
	return fmt.Sprintf(constants.SheetURLTemplate, url.PathEscape(sheetID), url.QueryEscape(sheetName))
}

// Source fetches a sheet tab over HTTP.
type Source struct {
	id         sources.ID
	sheetID    string
	sheetName  string
	url        string
	client     *transport.Client
	cacheDir   string
	cacheTTL   time.Duration
	nullValues []string
}

// Option configures a sheet source.
type Option func(*Source)

// WithSheet selects the sheet and tab.
func WithSheet(sheetID, sheetName string) Option {
	return func(s *Source) {
		s.sheetID = sheetID
		s.sheetName = sheetName
	}
}

// WithURL fetches from u instead of the URL derived from the sheet ID.
func WithURL(u string) Option {
	return func(s *Source) {
		s.url = u
	}
}

// WithClient sets the HTTP client.
func WithClient(c *transport.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithCache keeps the last download in dir and reuses it while it is
// younger than ttl. A zero ttl disables the cache.
func WithCache(dir string, ttl time.Duration) Option {
	return func(s *Source) {
		s.cacheDir = dir
		s.cacheTTL = ttl
	}
}

// WithNullValues treats extra field texts as null.
func WithNullValues(values ...string) Option {
	return func(s *Source) {
		s.nullValues = append(s.nullValues, values...)
	}
}

// New creates a new sheet source.
func New(opts ...Option) *Source {
	s := &Source{
		id:        sources.OverlayID,
		sheetID:   constants.DefaultSheetID,
		sheetName: constants.DefaultSheetName,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = transport.New()
	}
	return s
}

// ID returns the role of this source.
func (s *Source) ID() sources.ID {
	return s.id
}

// Location returns the export URL.
func (s *Source) Location() string {
	if s.url != "" {
		return s.url
	}
	return URL(s.sheetID, s.sheetName)
}

// Check validates the export URL. It does not touch the network.
func (s *Source) Check(_ context.Context) error {
	if s.url == "" && s.sheetID == "" {
		return errors.NewConfigError("sheet", "sheet id or url is required", nil)
	}
	u, err := url.Parse(s.Location())
	if err != nil {
		return errors.NewConfigError("sheet", "invalid sheet url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigError("sheet", fmt.Sprintf("unsupported url scheme %q", u.Scheme), nil)
	}
	return nil
}

// Load downloads the tab, or reads the cached copy, and parses it.
func (s *Source) Load(ctx context.Context) (*table.Table, error) {
	if err := s.Check(ctx); err != nil {
		return nil, err
	}
	logger := logging.Ctx(ctx)
	location := s.Location()

	data, cached := s.readCache()
	if !cached {
		var err error
		data, err = s.client.Fetch(ctx, constants.ProviderNameSheets, location)
		if err != nil {
			return nil, err
		}
		if err := s.writeCache(data); err != nil {
			logger.Warn().Err(err).Str("dir", s.cacheDir).Msg("Failed to cache sheet download")
		}
	}

	t, err := table.ReadCSV(s.id.String(), bytes.NewReader(data), table.WithNullValues(s.nullValues...))
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("source", s.id.String()).
		Str("url", location).
		Bool("cached", cached).
		Int("bytes", len(data)).
		Int("rows", t.Len()).
		Msg("Loaded sheet")
	return t, nil
}

func (s *Source) cachePath() string {
	name := s.sheetID + "_" + s.sheetName
	if s.url != "" {
		name = "url_" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.url)).String()
	}
	return filepath.Join(s.cacheDir, url.PathEscape(name)+".csv")
}

// readCache returns the cached download if it is fresh.
func (s *Source) readCache() ([]byte, bool) {
	if s.cacheDir == "" || s.cacheTTL <= 0 {
		return nil, false
	}
	path := s.cachePath()
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) >= s.cacheTTL {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the configured cache dir
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeCache stores data through a temp file so readers never see a
// partial download.
func (s *Source) writeCache(data []byte) error {
	if s.cacheDir == "" || s.cacheTTL <= 0 {
		return nil
	}
	if err := os.MkdirAll(s.cacheDir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", "cache directory", err)
	}

	tempFile, err := os.CreateTemp(s.cacheDir, "sheet_*.csv")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", tempPath, err)
	}
	if err := os.Rename(tempPath, s.cachePath()); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("rename", s.cachePath(), err)
	}
	return nil
}
