package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	rec := logging.Capture(t)

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Err(errors.New("boom")).Msg("error message")

	assert.Equal(t, []string{"debug message", "info message", "warning message", "error message"}, rec.Messages())
	assert.Contains(t, rec.String(), "boom")

	rec.Reset()
	assert.Empty(t, rec.Entries())
}

func TestContextLogger(t *testing.T) {
	rec := logging.NewRecorder(t)

	ctx := logging.WithLogger(context.Background(), rec.Logger)
	ctx = logging.WithRunID(ctx, "run-123")
	ctx = logging.WithSource(ctx, "overlay")
	ctx = logging.WithStage(ctx, "filter")

	logging.FromContext(ctx).Info().Msg("stage finished")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "run-123", entries[0]["run_id"])
	assert.Equal(t, "overlay", entries[0]["source"])
	assert.Equal(t, "filter", entries[0]["stage"])
	assert.Equal(t, "run-123", logging.RunID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(logging.WithLogger(context.Background(), nil)))
	assert.Empty(t, logging.RunID(context.Background()))
}

func TestWithFields(t *testing.T) {
	rec := logging.NewRecorder(t)
	ctx := logging.WithLogger(context.Background(), rec.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"rows":    12,
		"dry_run": true,
		"err":     errors.New("bad"),
	})

	logging.Ctx(ctx).Info().Msg("fields")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 12, entries[0]["rows"])
	assert.Equal(t, true, entries[0]["dry_run"])
	assert.Equal(t, "bad", entries[0]["err"])
}

func TestLevels(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tt.level, Output: "discard"})
			assert.Equal(t, tt.want, logger.GetLevel())
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestErrorLevelFilters(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := &bytes.Buffer{}
	logger := logging.NewLoggerFromConfig(&logging.Config{Level: "error", Format: "json", Output: "discard"}).Output(buf)
	logger.Info().Msg("info")
	logger.Error().Msg("error")

	assert.NotContains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestConfigToFile(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := filepath.Join(t.TempDir(), "run.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "auto",
		Output: path,
		Fields: map[string]any{"app": "eventmerge"},
	})
	logger.Info().Msg("written to file")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"written to file"`)
	assert.Contains(t, string(content), `"app":"eventmerge"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}
