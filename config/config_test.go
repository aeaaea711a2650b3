package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/omnisearch/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, scoring.DefaultFactors(), cfg.Scoring)
	assert.Equal(t, 250*time.Millisecond, cfg.Query.SlowSourceTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.Query.MixBudget)
	assert.Equal(t, 50, cfg.Query.MaxResults)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithSlowSourceTimeout(time.Second),
			WithMixBudget(0),
			WithMaxResults(-1),
			WithStoragePath("/tmp/omnisearch"),
			WithLogLevel("debug"),
		)
		assert.Equal(t, time.Second, cfg.Query.SlowSourceTimeout)
		assert.Equal(t, time.Duration(0), cfg.Query.MixBudget)
		assert.Equal(t, -1, cfg.Query.MaxResults)
		assert.Equal(t, "/tmp/omnisearch", cfg.Storage.Path)
		assert.False(t, cfg.Storage.InMemory)
		assert.NoError(t, cfg.Validate())

		cfg = NewConfig(WithStoragePath("/x"), WithInMemoryStorage())
		assert.True(t, cfg.Storage.InMemory)
		assert.Empty(t, cfg.Storage.Path)
	})
}

func TestParse(t *testing.T) {
	data := []byte(`
scoring:
  adjacency: 4.2
  maximum_character_distance: 10
query:
  slow_source_timeout: 400ms
  max_results: 20
storage:
  path: /var/lib/omnisearch
  in_memory: false
log:
  level: warn
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 4.2, cfg.Scoring.Adjacency)
	assert.Equal(t, 10, cfg.Scoring.MaximumCharacterDistance)
	assert.Equal(t, scoring.DefaultFactors().WordPortion, cfg.Scoring.WordPortion, "missing keys keep defaults")
	assert.Equal(t, 400*time.Millisecond, cfg.Query.SlowSourceTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.Query.MixBudget)
	assert.Equal(t, 20, cfg.Query.MaxResults)
	assert.Equal(t, "/var/lib/omnisearch", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "query: [1, 2"},
		{"bad duration", "query:\n  slow_source_timeout: soon"},
		{"negative factor", "scoring:\n  adjacency: -1"},
		{"negative timeout", "query:\n  slow_source_timeout: -1s"},
		{"max results below -1", "query:\n  max_results: -2"},
		{"disk storage without path", "storage:\n  in_memory: false"},
		{"unknown log level", "log:\n  level: loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnisearch.yaml")
	cfg := NewConfig(WithMaxResults(7), WithLogLevel("error"))
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyScoring(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, scoring.SetFactors(scoring.DefaultFactors())) })

	cfg := DefaultConfig()
	cfg.Scoring.CharacterMatch = 1.5
	require.NoError(t, cfg.ApplyScoring())
	assert.Equal(t, 1.5, scoring.CurrentFactors().CharacterMatch)
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.ControllerOptions(), 4)
	assert.Empty(t, cfg.SchedulerOptions())

	cfg.Scheduler.PoolSize = 3
	assert.Len(t, cfg.SchedulerOptions(), 1)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
