// Package eventmerge merges a locally enriched event listing with a live
// categorized Google Sheet into one CSV.
//
// A run loads both tables, normalizes their headers, keeps rows whose
// registration link points at the event platform, inner-joins them on the
// link, lets the sheet override description and attendee counts, adds the
// sheet's categories, and writes the result in the base table's column
// order.
//
// Example usage:
//
//	m, err := eventmerge.New(
//	    eventmerge.WithBaseFile("events.csv"),
//	    eventmerge.WithOutputFile("events_final.csv"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := m.Run(ctx)
package eventmerge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/eventmerge/internal/metrics"
	"github.com/agentstation/eventmerge/internal/sources"
	"github.com/agentstation/eventmerge/internal/sources/local"
	"github.com/agentstation/eventmerge/internal/sources/sheet"
	"github.com/agentstation/eventmerge/internal/transport"
	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/filter"
	"github.com/agentstation/eventmerge/pkg/join"
	"github.com/agentstation/eventmerge/pkg/logging"
	"github.com/agentstation/eventmerge/pkg/normalize"
	"github.com/agentstation/eventmerge/pkg/project"
	"github.com/agentstation/eventmerge/pkg/provenance"
	"github.com/agentstation/eventmerge/pkg/reconcile"
	"github.com/agentstation/eventmerge/pkg/table"
)

// Merger runs the merge pipeline
type Merger interface {
	// Run performs one complete merge
	Run(ctx context.Context) (*Result, error)

	// SheetURL returns the address the overlay is fetched from
	SheetURL() string

	// OnProgress registers a callback for operator progress messages
	OnProgress(ProgressHook)
}

// merger is the default implementation of Merger
type merger struct {
	config  *config
	hooks   *hooks
	base    sources.Source
	overlay sources.Source
	metrics *metrics.Manager
}

// New creates a Merger with the given options
func New(opts ...Option) (Merger, error) {
	m := &merger{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	for _, opt := range opts {
		if err := opt(m.config); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if err := m.config.validate(); err != nil {
		return nil, err
	}

	auth, ok := transport.ParseAuth(m.config.sheetAuth)
	if !ok {
		return nil, errors.NewConfigError("sheet_auth", fmt.Sprintf("unknown auth scheme %q", m.config.sheetAuth), nil)
	}
	clientOpts := []transport.Option{
		transport.WithHTTPClient(m.config.httpClient),
		transport.WithAuth(auth, m.config.sheetToken),
	}
	if m.config.httpClient == nil && m.config.httpTimeout > 0 {
		clientOpts = append(clientOpts, transport.WithTimeout(m.config.httpTimeout))
	}

	sheetOpts := []sheet.Option{
		sheet.WithSheet(m.config.sheetID, m.config.sheetName),
		sheet.WithClient(transport.New(clientOpts...)),
		sheet.WithCache(m.config.sheetCacheDir, m.config.sheetCacheTTL),
		sheet.WithNullValues(m.config.nullValues...),
	}
	if m.config.sheetURL != "" {
		sheetOpts = append(sheetOpts, sheet.WithURL(m.config.sheetURL))
	}
	m.overlay = sheet.New(sheetOpts...)
	m.base = local.New(sources.BaseID, m.config.baseFile, local.WithNullValues(m.config.nullValues...))

	m.metrics = m.config.metrics
	if m.metrics == nil {
		m.metrics = metrics.NewManager()
	}
	return m, nil
}

// SheetURL returns the overlay export address
func (m *merger) SheetURL() string {
	return m.overlay.Location()
}

// OnProgress registers a progress callback
func (m *merger) OnProgress(fn ProgressHook) {
	m.hooks.OnProgress(fn)
}

func (m *merger) progress(stage Stage, format string, args ...any) {
	m.hooks.triggerProgress(Event{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Run performs one merge. Nothing is written to the output path unless
// every stage succeeds.
func (m *merger) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:    uuid.NewString(),
		SheetURL: m.overlay.Location(),
		BaseFile: m.config.baseFile,
		Started:  time.Now(),
	}
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := logging.Ctx(ctx)

	err := m.run(ctx, res)
	res.Duration = time.Since(res.Started)
	m.metrics.RecordRun(err, res.Duration, time.Now())

	if m.config.metricsFile != "" {
		if werr := m.metrics.WriteTextfile(m.config.metricsFile); werr != nil {
			logger.Warn().Err(werr).Str("file", m.config.metricsFile).Msg("Failed to write metrics")
		}
	}

	if err != nil {
		logger.Debug().Err(err).Dur("duration", res.Duration).Msg("Merge failed")
		return nil, err
	}
	logger.Debug().
		Int("rows", res.Counts.Output).
		Bool("written", res.Written).
		Dur("duration", res.Duration).
		Msg("Merge finished")
	return res, nil
}

func (m *merger) run(ctx context.Context, res *Result) error {
	cfg := m.config

	// The local file is checked before any network traffic so a missing
	// base never costs a download.
	checkCtx := logging.WithStage(ctx, string(StageCheck))
	if err := m.base.Check(checkCtx); err != nil {
		return err
	}
	if err := m.overlay.Check(checkCtx); err != nil {
		return err
	}

	overlayRaw, err := m.load(ctx, m.overlay, StageFetch)
	if err != nil {
		return err
	}
	baseRaw, err := m.load(ctx, m.base, StageLoad)
	if err != nil {
		return err
	}
	res.Counts.OverlayLoaded = overlayRaw.Len()
	res.Counts.BaseLoaded = baseRaw.Len()
	m.metrics.ObserveRows(metrics.StageOverlayLoaded, overlayRaw.Len())
	m.metrics.ObserveRows(metrics.StageBaseLoaded, baseRaw.Len())

	base := normalize.Base(baseRaw)
	overlay := normalize.Overlay(overlayRaw)
	logging.Ctx(ctx).Debug().
		Strs("base_columns", base.Columns()).
		Strs("overlay_columns", overlay.Columns()).
		Str("stage", string(StageNormalize)).
		Msg("Normalized headers")

	baseKept, err := filter.Apply(base, filter.Contains(constants.ColumnBaseLink, cfg.marker))
	if err != nil {
		return err
	}
	overlayKept, err := filter.Apply(overlay,
		filter.Contains(constants.ColumnOverlayLink, cfg.marker),
		filter.NotBlank(constants.ColumnDescription),
	)
	if err != nil {
		return err
	}
	res.Counts.BaseKept = baseKept.Kept
	res.Counts.OverlayKept = overlayKept.Kept
	m.metrics.ObserveRows(metrics.StageBaseFiltered, baseKept.Kept)
	m.metrics.ObserveRows(metrics.StageOverlayFiltered, overlayKept.Kept)
	logging.Ctx(ctx).Debug().
		Int("base_kept", baseKept.Kept).
		Int("base_dropped", baseKept.Dropped).
		Int("overlay_kept", overlayKept.Kept).
		Int("overlay_dropped", overlayKept.Dropped).
		Str("marker", cfg.marker).
		Str("stage", string(StageFilter)).
		Msg("Filtered rows")

	joined, err := join.Inner(baseKept.Table, overlayKept.Table,
		constants.ColumnBaseLink, constants.ColumnOverlayLink,
		join.WithCardinality(cfg.cardinality),
	)
	if err != nil {
		return errors.NewMergeError(sources.BaseID.String(), sources.OverlayID.String(), string(StageJoin), err)
	}
	res.Counts.Matched = joined.Matched
	res.Counts.BaseUnmatched = joined.LeftUnmatched
	res.Counts.OverlayUnmatched = joined.RightUnmatched
	res.Counts.BaseDuplicates = joined.LeftDuplicates
	res.Counts.OverlayDuplicates = joined.RightDuplicates
	m.metrics.ObserveRows(metrics.StageMatched, joined.Matched)
	if joined.LeftDuplicates > 0 || joined.RightDuplicates > 0 {
		logging.Ctx(ctx).Warn().
			Int("base_duplicates", joined.LeftDuplicates).
			Int("overlay_duplicates", joined.RightDuplicates).
			Str("cardinality", cfg.cardinality.String()).
			Msg("Skipped repeated registration links")
	}
	m.progress(StageJoin, "Matched %d rows out of %d enriched events.", joined.Matched, baseKept.Kept)

	recOpts := []reconcile.Option{
		reconcile.WithSource(reconcile.Base, constants.LeftSuffix, base.Columns()),
		reconcile.WithSource(reconcile.Overlay, constants.RightSuffix, overlay.Columns()),
		reconcile.WithDefault(constants.ColumnCategories, table.String("")),
		reconcile.WithDrop(constants.ColumnOverlayLink),
		reconcile.WithKey(constants.ColumnBaseLink),
	}
	if cfg.provenanceFile != "" {
		recOpts = append(recOpts, reconcile.WithProvenance())
	}
	rec, err := reconcile.New(recOpts...)
	if err != nil {
		return err
	}
	reconciled, err := rec.Reconcile(logging.WithStage(ctx, string(StageReconcile)), joined.Table)
	if err != nil {
		return errors.NewMergeError(sources.BaseID.String(), sources.OverlayID.String(), string(StageReconcile), err)
	}
	res.Fields = reconciled.Summary()
	m.metrics.ObserveFields(res.Fields)

	out, err := project.Apply(reconciled.Table, base.Columns(), constants.ColumnCategories)
	if err != nil {
		return errors.NewMergeError(sources.BaseID.String(), sources.OverlayID.String(), string(StageProject), err)
	}
	res.Columns = out.Columns()
	res.Counts.Output = out.Len()
	m.metrics.ObserveRows(metrics.StageOutput, out.Len())

	if err := ctx.Err(); err != nil {
		return err
	}

	if cfg.dryRun {
		m.hooks.triggerProgress(Event{
			Stage:   StageWrite,
			Message: fmt.Sprintf("Dry run: %d rows not written.", out.Len()),
			Success: true,
		})
		return nil
	}

	if cfg.provenanceFile != "" {
		if err := provenance.Save(cfg.provenanceFile, reconciled.Provenance); err != nil {
			return err
		}
	}
	if err := writeAtomic(cfg.outputFile, out); err != nil {
		return err
	}
	res.OutputFile = cfg.outputFile
	res.Written = true

	m.hooks.triggerProgress(Event{
		Stage:   StageWrite,
		Message: fmt.Sprintf("Merge complete! Saved: %s", cfg.outputFile),
		Success: true,
	})
	m.progress(StageWrite, "Final row count: %d", out.Len())
	return nil
}

// load reads one source, timing it.
func (m *merger) load(ctx context.Context, src sources.Source, stage Stage) (*table.Table, error) {
	ctx = logging.WithSource(logging.WithStage(ctx, string(stage)), src.ID().String())
	if stage == StageFetch {
		m.progress(stage, "Downloading latest data from Google Sheet...")
	}

	start := time.Now()
	t, err := src.Load(ctx)
	m.metrics.ObserveLoad(src.ID().String(), time.Since(start))
	if err != nil {
		return nil, err
	}
	return t, nil
}
