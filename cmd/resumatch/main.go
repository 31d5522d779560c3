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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	resumatch "github.com/poiesic/resumatch"
	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/ingest"
	"github.com/poiesic/resumatch/redrive"
)

func main() {
	// Optional .env for host and model settings; absence is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "resumatch",
		Usage: "Hybrid semantic and keyword ranking for structured documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the per-section collections (idempotent)",
				Action: initCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest documents from a JSON file",
				Action: ingestCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON array of documents",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent document ingestions",
						Value: 2,
					},
				),
			},
			{
				Name:   "derive",
				Usage:  "Derive structured sections from raw text and ingest them",
				Action: deriveCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the raw document text",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Document id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Document category",
					},
					&cli.StringFlag{
						Name:  "primary-role",
						Usage: "Document primary role",
					},
				),
			},
			{
				Name:   "match-section",
				Usage:  "Rank documents against a query within one section",
				Action: matchSectionCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "section",
						Aliases:  []string{"s"},
						Usage:    "Section to search (summary, skills, experiences)",
						Required: true,
					},
					queryFlag(), topKFlag(), rolesFlag(),
				),
			},
			{
				Name:   "rank",
				Usage:  "Rank whole documents against a query across all sections",
				Action: rankCommand,
				Flags:  append(engineFlags(), queryFlag(), topKFlag(), rolesFlag()),
			},
			{
				Name:   "info",
				Usage:  "Show collection statistics",
				Action: infoCommand,
				Flags:  engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"RESUMATCH_DB"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"RESUMATCH_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "all-MiniLM-L6-v2",
			EnvVars: []string{"RESUMATCH_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "deriver-model",
			Usage:   "Section derivation model name",
			Value:   "llama-3.1-8b-instant",
			EnvVars: []string{"RESUMATCH_DERIVER_MODEL"},
		},
		&cli.IntFlag{
			Name:    "vector-dim",
			Usage:   "Embedding dimensionality",
			Value:   384,
			EnvVars: []string{"RESUMATCH_VECTOR_DIM"},
		},
	}
}

func queryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "query",
		Aliases:  []string{"q"},
		Usage:    "Free-text query",
		Required: true,
	}
}

func topKFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "top-k",
		Aliases: []string{"k"},
		Usage:   "Number of results",
		Value:   10,
	}
}

func rolesFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "role",
		Usage: "Restrict candidates to documents with this primary role (repeatable)",
	}
}

func openEngine(c *cli.Context) (*resumatch.Engine, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDeriverModel(c.String("deriver-model")),
		ai.WithVectorDim(c.Int("vector-dim")),
	)
	return resumatch.NewEngine(c.String("db"), resumatch.WithAIConfig(config))
}

func initCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Bootstrap(context.Background()); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Collections ready (dim %d)\n", c.Int("vector-dim"))
	return nil
}

// documentJSON is the on-disk document shape for the ingest command.
type documentJSON struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	PrimaryRole string `json:"primary_role"`

	Summary     []string `json:"summary"`
	Skills      []string `json:"skills"`
	Experiences []struct {
		Role             string   `json:"role"`
		Company          string   `json:"company"`
		Environment      string   `json:"environment"`
		Responsibilities []string `json:"responsibilities"`
	} `json:"experiences"`
}

func (d *documentJSON) toDocument() *core.Document {
	doc := &core.Document{
		ID:          d.ID,
		Category:    d.Category,
		PrimaryRole: d.PrimaryRole,
		Summary:     d.Summary,
		Skills:      d.Skills,
	}
	for _, exp := range d.Experiences {
		doc.Experiences = append(doc.Experiences, core.Experience{
			Role:             exp.Role,
			Company:          exp.Company,
			Environment:      exp.Environment,
			Responsibilities: exp.Responsibilities,
		})
	}
	return doc
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	var raw []documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	docs := make([]*core.Document, len(raw))
	for i := range raw {
		docs[i] = raw[i].toDocument()
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	pipeline, err := engine.NewIngestPipeline(
		ingest.WithPoolSize(c.Int("pool-size")),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	results := pipeline.IngestAll(ctx, docs)
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", r.DocumentID, r.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "ok %s: %d points (%d failed)\n",
			r.DocumentID, r.Stats.Succeeded, r.Stats.Failed)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(results))
	}
	return nil
}

func deriveCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	result := engine.NewRederiver().Derive(ctx, string(data))
	switch result.Status {
	case redrive.StatusRecovered:
	case redrive.StatusExhausted:
		return fmt.Errorf("derivation stopped, daily quota exhausted after %d attempts: %v",
			result.Attempts, result.LastErr)
	default:
		return fmt.Errorf("derivation failed after %d attempts: %v", result.Attempts, result.LastErr)
	}

	doc := &core.Document{
		ID:          c.String("id"),
		Category:    c.String("category"),
		PrimaryRole: c.String("primary-role"),
		Summary:     result.Sections.Summary,
		Skills:      result.Sections.Skills,
	}
	for _, exp := range result.Sections.Experiences {
		doc.Experiences = append(doc.Experiences, core.Experience{
			Role:             exp.Role,
			Company:          exp.Company,
			Environment:      exp.Environment,
			Responsibilities: exp.Responsibilities,
		})
	}

	pipeline, err := engine.NewIngestPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stats, err := pipeline.IngestDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "ok %s: %d points (%d failed)\n", doc.ID, stats.Succeeded, stats.Failed)
	return nil
}

func matchSectionCommand(c *cli.Context) error {
	ctx := context.Background()

	section := core.Section(strings.ToLower(c.String("section")))
	if !core.ValidSection(section) {
		return fmt.Errorf("invalid section %q", c.String("section"))
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	filter, err := engine.FilterByRoles(ctx, c.StringSlice("role"))
	if err != nil {
		return err
	}

	retriever, err := engine.NewRetriever()
	if err != nil {
		return err
	}
	matches, err := retriever.MatchSection(ctx, section, c.String("query"), c.Int("top-k"), filter)
	if err != nil {
		return err
	}

	for i, m := range matches {
		fmt.Printf("%d: %s [%0.3f] (semantic %0.3f, keywords %0.3f: %s)\n",
			i+1, m.DocumentID, m.Score, m.SemanticScore, m.KeywordScore,
			strings.Join(m.MatchedKeywords, ", "))
	}
	return nil
}

func rankCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	filter, err := engine.FilterByRoles(ctx, c.StringSlice("role"))
	if err != nil {
		return err
	}

	aggregator, err := engine.NewAggregator()
	if err != nil {
		return err
	}
	defer aggregator.Release()

	ranked, err := aggregator.MatchDocuments(ctx, c.String("query"), c.Int("top-k"), filter)
	if err != nil {
		return err
	}

	for i, doc := range ranked {
		fmt.Printf("%d: %s [%0.3f] (skills %0.3f, experience %0.3f, summary %0.3f, keywords %0.3f)\n",
			i+1, doc.DocumentID, doc.Score,
			doc.Signals.SkillsScore, doc.Signals.ExperienceScore,
			doc.Signals.SummaryScore, doc.Signals.KeywordScore)
	}
	return nil
}

func infoCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, section := range core.Sections {
		info, err := engine.VectorStore().CollectionInfo(ctx, section)
		if err != nil {
			fmt.Printf("%s: unavailable (%v)\n", section, err)
			continue
		}
		fmt.Printf("%s: %d points, %d documents, dim %d\n",
			info.Name, info.Points, info.Documents, info.VectorDim)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
