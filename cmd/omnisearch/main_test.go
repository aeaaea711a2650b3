package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/omnisearch"
	"github.com/poiesic/omnisearch/config"
	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/memsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
sources:
  - id: apps
    name: Applications
    priority: 10
    items:
      - uri: file:///Applications/iPhoto.app
        name: iPhoto
        type: file.application
      - uri: file:///Developer/iPhone%20Simulator.app
        name: iPhone Simulator
        type: file.application
  - id: docs
    name: Documents
    items:
      - uri: file:///Users/me/iPhone%20Manual.pdf
        name: iPhone Manual.pdf
        snippet: Getting started with your phone
        terms: [handbook]
      - uri: file:///Users/me/taxes.pdf
        name: taxes.pdf
`

func writeCatalog(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"omnisearch", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestParseCatalog(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		cat, err := parseCatalog([]byte(testCatalog))
		require.NoError(t, err)
		require.Len(t, cat.Sources, 2)
		assert.Equal(t, "apps", cat.Sources[0].ID)
		assert.Equal(t, 10, cat.Sources[0].Priority)
		assert.Len(t, cat.Sources[1].Items, 2)
		assert.Equal(t, []string{"handbook"}, cat.Sources[1].Items[0].Terms)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := parseCatalog([]byte("sources:\n  - name: nameless\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no id")
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := parseCatalog([]byte("sources:\n  - id: a\n  - id: a\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listed twice")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := parseCatalog([]byte("sources: [\n"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestCatalogItemResult(t *testing.T) {
	t.Run("defaults to file type", func(t *testing.T) {
		r, err := CatalogItem{URI: "file:///tmp/a.txt", Name: "a.txt"}.Result(nil)
		require.NoError(t, err)
		assert.Equal(t, core.TypeFile, r.Type())
		assert.Empty(t, r.Snippet())
	})

	t.Run("keeps snippet", func(t *testing.T) {
		r, err := CatalogItem{URI: "file:///tmp/a.txt", Name: "a.txt", Snippet: "hello"}.Result(nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", r.Snippet())
	})

	t.Run("rejects empty uri", func(t *testing.T) {
		_, err := CatalogItem{Name: "a.txt"}.Result(nil)
		require.Error(t, err)
	})
}

func TestQueryCommand(t *testing.T) {
	catalog := writeCatalog(t, testCatalog)

	t.Run("ranks matches", func(t *testing.T) {
		out, err := runApp(t, "query", "--catalog", catalog, "iph")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "iPhoto")
		assert.NotContains(t, out, "taxes.pdf")
	})

	t.Run("respects limit", func(t *testing.T) {
		out, err := runApp(t, "query", "--catalog", catalog, "--limit", "1", "iph")
		require.NoError(t, err)
		assert.Contains(t, out, "more)")
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
	})

	t.Run("groups by category", func(t *testing.T) {
		out, err := runApp(t, "query", "--catalog", catalog, "--by-category", "iph")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "file\n"))
	})

	t.Run("alternate terms match", func(t *testing.T) {
		out, err := runApp(t, "query", "--catalog", catalog, "handbook")
		require.NoError(t, err)
		assert.Contains(t, out, "iPhone Manual.pdf")
	})

	t.Run("query text is required", func(t *testing.T) {
		_, err := runApp(t, "query", "--catalog", catalog)
		require.Error(t, err)
	})

	t.Run("catalog is required", func(t *testing.T) {
		_, err := runApp(t, "query", "iph")
		require.Error(t, err)
	})
}

func TestIndexThenQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	catalog := writeCatalog(t, testCatalog)

	out, err := runApp(t, "index", "--catalog", catalog, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "apps: 2 results saved")
	assert.Contains(t, out, "docs: 2 results saved")

	out, err = runApp(t, "index", "--catalog", catalog, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "apps: 2 results unchanged")

	// Sources without items are served from the saved cache.
	bare := writeCatalog(t, "sources:\n  - id: apps\n  - id: docs\n")
	out, err = runApp(t, "query", "--catalog", bare, "--db", db, "manual")
	require.NoError(t, err)
	assert.Contains(t, out, "iPhone Manual.pdf")
}

func TestScoreCommand(t *testing.T) {
	t.Run("scores each candidate", func(t *testing.T) {
		out, err := runApp(t, "score", "iph", "iPhoto", "taxes")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "iPhoto")
		assert.True(t, strings.HasPrefix(lines[1], "0.0000"))
	})

	t.Run("verbose prints paths", func(t *testing.T) {
		out, err := runApp(t, "score", "--verbose", "iph", "iPhoto")
		require.NoError(t, err)
		assert.Contains(t, out, "path [0 1 2]")
	})

	t.Run("needs a candidate", func(t *testing.T) {
		_, err := runApp(t, "score", "iph")
		require.Error(t, err)
	})
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnisearch.yaml")
	_, err := runApp(t, "init-config", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Query, cfg.Query)

	out, err := runApp(t, "--config", path, "score", "iph", "iPhoto")
	require.NoError(t, err)
	assert.Contains(t, out, "iPhoto")
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"upper case", "WARN", false},
		{"invalid", "verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			err := app.Run([]string{"omnisearch", "--log-level", tt.level, "score", "a", "a"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func openTestEngine(t *testing.T, db string, cat *Catalog) (*omnisearch.Engine, []*memsource.Source, error) {
	t.Helper()
	engine, err := omnisearch.Open(omnisearch.WithConfig(config.NewConfig(config.WithStoragePath(db))))
	if err != nil {
		return nil, nil, err
	}
	sources, err := syncCatalog(context.Background(), engine, cat)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, sources, nil
}
