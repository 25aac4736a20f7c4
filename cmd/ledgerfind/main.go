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
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/ledgerfind"
	"github.com/poiesic/ledgerfind/ai"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/insight"
	"github.com/poiesic/ledgerfind/refresh"
	"github.com/poiesic/ledgerfind/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ledgerfind",
		Usage: "Semantic search over receipts and warranties",
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
				Name:   "ingest",
				Usage:  "Store a single receipt or warranty and index it",
				Action: ingestCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "type",
						Usage:    "Record domain (receipt or warranty)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "merchant",
						Usage: "Merchant name (receipt)",
					},
					&cli.Float64Flag{
						Name:  "amount",
						Usage: "Purchase amount (receipt)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Spending category",
					},
					&cli.StringFlag{
						Name:  "ocr-text",
						Usage: "Raw OCR text (receipt)",
					},
					&cli.StringFlag{
						Name:  "product",
						Usage: "Product name (warranty)",
					},
					&cli.StringFlag{
						Name:  "brand",
						Usage: "Brand name (warranty)",
					},
					&cli.StringFlag{
						Name:  "retailer",
						Usage: "Retailer (warranty)",
					},
					&cli.StringFlag{
						Name:  "coverage",
						Usage: "Coverage description (warranty)",
					},
					&cli.TimestampFlag{
						Name:   "purchased",
						Usage:  "Purchase date (YYYY-MM-DD, default today)",
						Layout: "2006-01-02",
					},
					&cli.TimestampFlag{
						Name:   "expires",
						Usage:  "Warranty expiry date (YYYY-MM-DD)",
						Layout: "2006-01-02",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Semantic search over stored records",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Restrict results to one domain (receipt or warranty)",
					},
				),
			},
			{
				Name:      "hybrid",
				Usage:     "Hybrid semantic plus keyword search",
				ArgsUsage: "<query text>",
				Action:    hybridCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Weight of the semantic score",
						Value: search.DefaultWeights.Vector,
					},
					&cli.Float64Flag{
						Name:  "text-weight",
						Usage: "Weight of the keyword score",
						Value: search.DefaultWeights.Text,
					},
				),
			},
			{
				Name:   "duplicates",
				Usage:  "Find likely duplicates of a stored record",
				Action: duplicatesCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "type",
						Usage:    "Domain of the reference record (receipt or warranty)",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "ID of the reference record",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity to report",
						Value: search.DefaultDuplicateThreshold,
					},
				),
			},
			{
				Name:      "insights",
				Usage:     "Spending patterns, anomalies and trends",
				ArgsUsage: "[query text]",
				Action:    insightsCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Analysis timeframe in days",
						Value: insight.DefaultTimeframeDays,
					},
					&cli.StringFlag{
						Name:  "types",
						Usage: "Comma-separated report sections (patterns, anomalies, trends)",
					},
				),
			},
			{
				Name:      "intent",
				Usage:     "Show the intent and entities understood from a query",
				ArgsUsage: "<query text>",
				Action:    intentCommand,
				Flags:     engineFlags(),
			},
			{
				Name:   "refresh",
				Usage:  "Regenerate stale embeddings for all stored records",
				Action: refreshCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Embeddings older than this are regenerated (0 disables)",
						Value: 24 * time.Hour,
					},
				),
			},
			{
				Name:   "health",
				Usage:  "Report engine readiness",
				Action: healthCommand,
				Flags:  engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags returns the flags every command needs to open an engine.
// Returned fresh per command because cli mutates flag state during parsing.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "User ID to operate on",
			Value:   1,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func openEngine(c *cli.Context, opts ...ledgerfind.EngineOption) (*ledgerfind.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts = append([]ledgerfind.EngineOption{ledgerfind.WithAIConfig(aiConfig)}, opts...)
	engine, err := ledgerfind.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func queryArg(c *cli.Context) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("query text is required")
	}
	return text, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	entityType := core.EntityType(c.String("type"))
	if err := core.ValidateEntityType(entityType); err != nil {
		return err
	}

	purchased := time.Now()
	if t := c.Timestamp("purchased"); t != nil {
		purchased = *t
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	userID := core.ID(c.Uint64("user"))
	switch entityType {
	case core.EntityTypeReceipt:
		stored, err := engine.AddReceipts(ctx, userID, &core.Receipt{
			Merchant:    c.String("merchant"),
			Amount:      c.Float64("amount"),
			Currency:    "USD",
			Category:    c.String("category"),
			PurchasedAt: purchased,
			OCRText:     c.String("ocr-text"),
		})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		engine.WaitForIndexing()
		fmt.Printf("Stored receipt %d\n", stored[0].Id)
	case core.EntityTypeWarranty:
		expires := purchased.AddDate(1, 0, 0)
		if t := c.Timestamp("expires"); t != nil {
			expires = *t
		}
		stored, err := engine.AddWarranties(ctx, userID, &core.Warranty{
			Product:     c.String("product"),
			Brand:       c.String("brand"),
			Category:    c.String("category"),
			Retailer:    c.String("retailer"),
			PurchasedAt: purchased,
			ExpiresAt:   expires,
			Coverage:    c.String("coverage"),
		})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		engine.WaitForIndexing()
		fmt.Printf("Stored warranty %d\n", stored[0].Id)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	text, err := queryArg(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	userID := core.ID(c.Uint64("user"))
	opts := &search.Options{Limit: c.Int("limit")}

	var results []*core.SearchResult
	if domain := c.String("type"); domain != "" {
		results, err = engine.SearchDomain(ctx, userID, text, core.EntityType(domain), opts)
	} else {
		results, err = engine.Search(ctx, userID, text, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(results)
	return nil
}

func hybridCommand(c *cli.Context) error {
	ctx := context.Background()

	text, err := queryArg(c)
	if err != nil {
		return err
	}

	weights := search.Weights{
		Vector: c.Float64("vector-weight"),
		Text:   c.Float64("text-weight"),
	}
	if err := weights.Validate(); err != nil {
		return err
	}

	engine, err := openEngine(c, ledgerfind.WithWeights(weights))
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.HybridSearch(ctx, core.ID(c.Uint64("user")), text, &search.Options{
		Limit: c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("hybrid search failed: %w", err)
	}

	printResults(results)
	return nil
}

func duplicatesCommand(c *cli.Context) error {
	ctx := context.Background()

	entityType := core.EntityType(c.String("type"))
	if err := core.ValidateEntityType(entityType); err != nil {
		return err
	}

	engine, err := openEngine(c, ledgerfind.WithSearchOptions(
		search.WithDuplicateThreshold(c.Float64("threshold")),
	))
	if err != nil {
		return err
	}
	defer engine.Close()

	candidates, err := engine.FindDuplicates(ctx, core.ID(c.Uint64("user")), entityType, core.ID(c.Uint64("id")))
	if err != nil {
		return fmt.Errorf("duplicate detection failed: %w", err)
	}

	if len(candidates) == 0 {
		fmt.Println("No duplicates found")
		return nil
	}
	fmt.Printf("Found %d candidate(s) for %s %d\n", len(candidates), entityType, c.Uint64("id"))
	for i, candidate := range candidates {
		fmt.Printf("%d: %s %d [%.3f]\n", i, entityType, candidate.ItemId, candidate.Similarity)
	}
	return nil
}

func insightsCommand(c *cli.Context) error {
	ctx := context.Background()

	var types []insight.Type
	if raw := c.String("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			types = append(types, insight.Type(strings.TrimSpace(part)))
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	report, err := engine.AnalyzeBudget(ctx, core.ID(c.Uint64("user")), queryText, c.Int("days"), types)
	if err != nil {
		return fmt.Errorf("insight analysis failed: %w", err)
	}

	printReport(report)
	return nil
}

func intentCommand(c *cli.Context) error {
	text, err := queryArg(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("Intent: %s\n", engine.ClassifyIntent(text))
	entities := engine.ExtractEntities(text)
	if entities.Empty() {
		fmt.Println("Entities: none")
		return nil
	}
	if entities.Category != "" {
		fmt.Printf("Category: %s\n", entities.Category)
	}
	if entities.Merchant != "" {
		fmt.Printf("Merchant: %s\n", entities.Merchant)
	}
	if entities.Product != "" {
		fmt.Printf("Product: %s\n", entities.Product)
	}
	if entities.DateRange != nil {
		fmt.Printf("Date range: %s to %s\n",
			entities.DateRange.Start.Format("2006-01-02"),
			entities.DateRange.End.Format("2006-01-02"))
	}
	if entities.AmountRange != nil {
		min, max := "open", "open"
		if entities.AmountRange.Min != nil {
			min = fmt.Sprintf("%.2f", *entities.AmountRange.Min)
		}
		if entities.AmountRange.Max != nil {
			max = fmt.Sprintf("%.2f", *entities.AmountRange.Max)
		}
		fmt.Printf("Amount range: %s to %s\n", min, max)
	}
	return nil
}

func refreshCommand(c *cli.Context) error {
	ctx := context.Background()

	config := &refresh.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		MaxAge:         c.Duration("max-age"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	summary, err := engine.RefreshEmbeddings(ctx, core.ID(c.Uint64("user")), config, os.Stderr)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Scanned %d records: %d refreshed, %d already fresh\n",
		summary.Scanned, summary.Refreshed, summary.Skipped)
	return nil
}

func healthCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	health := engine.HealthCheck()
	fmt.Printf("Status: %s\n", health.Status)
	fmt.Printf("Model: %s\n", health.ModelId)
	fmt.Printf("Vector dimension: %d\n", health.VectorDimension)
	return nil
}

func printResults(results []*core.SearchResult) {
	fmt.Printf("Found %d hit(s)\n", len(results))
	for i, hit := range results {
		switch {
		case hit.Receipt != nil:
			fmt.Printf("%d: receipt %d '%s' %.2f %s [%.3f]\n",
				i, hit.ItemId, hit.Receipt.Merchant, hit.Receipt.Amount,
				hit.Receipt.PurchasedAt.Format("2006-01-02"), hit.CombinedScore)
		case hit.Warranty != nil:
			fmt.Printf("%d: warranty %d '%s %s' expires %s [%.3f]\n",
				i, hit.ItemId, hit.Warranty.Brand, hit.Warranty.Product,
				hit.Warranty.ExpiresAt.Format("2006-01-02"), hit.CombinedScore)
		default:
			fmt.Printf("%d: %s %d [%.3f]\n", i, hit.ItemType, hit.ItemId, hit.CombinedScore)
		}
	}
}

func printReport(report *insight.Report) {
	fmt.Printf("Timeframe: %s to %s\n",
		report.Timeframe.Start.Format("2006-01-02"),
		report.Timeframe.End.Format("2006-01-02"))

	if report.Patterns != nil {
		p := report.Patterns
		fmt.Printf("\nSpending: %.2f across %d receipt(s), average %.2f\n",
			p.Total, p.ReceiptCount, p.AverageAmount)
		for _, ct := range p.CategoryTotals {
			fmt.Printf("  %s: %.2f (%d)\n", ct.Category, ct.Total, ct.Count)
		}
		if len(p.TopMerchants) > 0 {
			fmt.Println("Top merchants:")
			for _, mt := range p.TopMerchants {
				fmt.Printf("  %s: %.2f (%d)\n", mt.Merchant, mt.Total, mt.Count)
			}
		}
	}

	if len(report.Anomalies) > 0 {
		fmt.Println("\nAnomalies:")
		for _, a := range report.Anomalies {
			fmt.Printf("  receipt %d '%s' %.2f (%.1f sigma above mean %.2f)\n",
				a.Receipt.Id, a.Receipt.Merchant, a.Receipt.Amount, a.Deviation, a.Mean)
		}
	}

	if report.Trends != nil {
		t := report.Trends
		fmt.Printf("\nTrend: %s (first half %.2f, second half %.2f, delta %+.2f)\n",
			t.Direction, t.FirstHalfTotal, t.SecondHalfTotal, t.Delta)
	}
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
