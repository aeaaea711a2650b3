// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/omnisearch"
	"github.com/poiesic/omnisearch/config"
	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/memsource"
	"github.com/poiesic/omnisearch/scoring"
	"github.com/poiesic/omnisearch/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "omnisearch",
		Usage: "Query, index and score items across search sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run a query over the catalog sources and print ranked results",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					catalogFlag(true),
					dbFlag(false),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results, -1 for no limit",
						Value:   20,
					},
					&cli.BoolFlag{
						Name:  "by-category",
						Usage: "Group results by category",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Index the catalog and save it to the result cache",
				Action: indexCommand,
				Flags: []cli.Flag{
					catalogFlag(true),
					dbFlag(true),
				},
			},
			{
				Name:   "watch",
				Usage:  "Index the catalog and reindex whenever it changes",
				Action: watchCommand,
				Flags: []cli.Flag{
					catalogFlag(true),
					dbFlag(true),
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "How long the catalog must be quiet before reindexing",
						Value: defaultDebounce,
					},
				},
			},
			{
				Name:      "score",
				Usage:     "Score a term against one or more candidate strings",
				ArgsUsage: "<term> <candidate>...",
				Action:    scoreCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print every matched path",
					},
				},
			},
			{
				Name:      "init-config",
				Usage:     "Write the default configuration to a file",
				ArgsUsage: "<path>",
				Action:    initConfigCommand,
			},
		},
	}
}

func catalogFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "catalog",
		Usage:    "Path to YAML catalog of sources and items",
		Required: required,
	}
}

func dbFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: required,
	}
}

// loadConfig reads --config when given and applies the command's --db.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if db := c.String("db"); db != "" {
		config.WithStoragePath(db)(cfg)
	}
	return cfg, nil
}

// openEngine opens an engine and registers a memory source per catalog
// entry. Sources with items are reindexed from the catalog.
func openEngine(ctx context.Context, c *cli.Context) (*omnisearch.Engine, []*memsource.Source, error) {
	cat, err := loadCatalog(c.String("catalog"))
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	engine, err := omnisearch.Open(omnisearch.WithConfig(cfg), omnisearch.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open engine: %w", err)
	}
	sources, err := syncCatalog(ctx, engine, cat)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, sources, nil
}

// syncCatalog makes the engine's memory sources match cat. Sources already
// registered are reused.
func syncCatalog(ctx context.Context, engine *omnisearch.Engine, cat *Catalog) ([]*memsource.Source, error) {
	sources := make([]*memsource.Source, 0, len(cat.Sources))
	for _, cs := range cat.Sources {
		var src *memsource.Source
		if existing, ok := engine.Registry().Source(cs.ID); ok {
			ms, ok := existing.(*memsource.Source)
			if !ok {
				return nil, fmt.Errorf("source %s is not a memory source", cs.ID)
			}
			src = ms
		} else {
			ms, err := engine.NewMemorySource(ctx, cs.ID, cs.Name, memsource.WithPriority(cs.Priority))
			if err != nil {
				return nil, fmt.Errorf("failed to register source %s: %w", cs.ID, err)
			}
			src = ms
		}
		if len(cs.Items) > 0 {
			if err := indexItems(src, cs.Items); err != nil {
				return nil, err
			}
		}
		slog.Debug("source ready", "source", cs.ID, "results", src.Len())
		sources = append(sources, src)
	}
	return sources, nil
}

func indexItems(src *memsource.Source, items []CatalogItem) error {
	src.ClearResultIndex()
	for _, it := range items {
		r, err := it.Result(src)
		if err != nil {
			return err
		}
		if err := src.IndexResult(r, "", it.Terms...); err != nil {
			return err
		}
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query text is required")
	}
	raw := strings.Join(c.Args().Slice(), " ")
	limit := c.Int("limit")

	engine, _, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	controller, err := engine.NewQueryController(engine.NewQuery(raw, withLimit(limit)...))
	if err != nil {
		return err
	}
	if err := controller.StartQuery(c.Context); err != nil {
		return err
	}
	if err := controller.Wait(c.Context); err != nil {
		controller.Cancel()
		return err
	}

	snap := controller.Snapshot()
	slog.Debug("query finished", "query", raw, "total", snap.Total, "more", snap.More)
	if c.Bool("by-category") {
		return printByCategory(c.App.Writer, snap)
	}
	return printRanked(c.App.Writer, snap)
}

func withLimit(limit int) []core.QueryOption {
	if limit == 0 {
		return nil
	}
	return []core.QueryOption{core.WithMaxDesiredResults(limit)}
}

func indexCommand(c *cli.Context) error {
	engine, sources, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()
	return saveSources(c.Context, c.App.Writer, sources)
}

func saveSources(ctx context.Context, out io.Writer, sources []*memsource.Source) error {
	for _, src := range sources {
		saved, err := src.SaveResultsCache(ctx)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", src.Identifier(), err)
		}
		status := "unchanged"
		if saved {
			status = "saved"
		}
		fmt.Fprintf(out, "%s: %d results %s\n", src.Identifier(), src.Len(), status)
	}
	return nil
}

func scoreCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("a term and at least one candidate are required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return err
	}

	args := c.Args().Slice()
	term := args[0]
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, candidate := range args[1:] {
		score, details := scorer.ScoreTermDetails(term, candidate)
		fmt.Fprintf(w, "%.4f\t%s\n", score, candidate)
		if !c.Bool("verbose") {
			continue
		}
		for _, m := range details.Matches {
			fmt.Fprintf(w, "\t  path %v score %.4f word %.3f spread %.3f\n",
				m.Positions(), m.Score, m.WordPortionScore, m.SpreadMultiplier)
		}
	}
	return w.Flush()
}

func initConfigCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one output path is required")
	}
	path := c.Args().First()
	if err := config.DefaultConfig().WriteYAML(path); err != nil {
		return err
	}
	slog.Info("wrote default configuration", "path", path)
	return nil
}

func printRanked(out io.Writer, snap *search.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range snap.RankedResults() {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n", r.EffectiveRank(), r.DisplayName(), r.Type(), r.URI())
	}
	if snap.More > 0 {
		fmt.Fprintf(w, "\t(%d more)\n", snap.More)
	}
	return w.Flush()
}

func printByCategory(out io.Writer, snap *search.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	groups := snap.RankedResultsByCategory()
	for _, category := range slices.Sorted(maps.Keys(groups)) {
		group := groups[category]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", category)
		for _, r := range group {
			fmt.Fprintf(w, "  %.3f\t%s\t%s\n", r.EffectiveRank(), r.DisplayName(), r.URI())
		}
	}
	return w.Flush()
}

func setupLogger(c *cli.Context) error {
	level, err := config.ParseLevel(strings.ToLower(c.String("log-level")))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
