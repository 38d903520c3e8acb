package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hustings/canvass"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/pipeline"
	"github.com/hustings/canvass/search"
	"github.com/hustings/canvass/taxonomy"
)

func main() {
	app := &cli.App{
		Name:  "canvass",
		Usage: "AI analysis and search for campaign document archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
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
				Name:      "ingest",
				Usage:     "Register document files for analysis",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags:     storageFlags(),
			},
			{
				Name:   "process",
				Usage:  "Run the analysis pipeline for pending documents, or one document with --file",
				Action: processCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "file",
						Usage: "Process only the document with this filename",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents to analyze concurrently",
						Value: 3,
					},
					&cli.IntFlag{
						Name:  "retries",
						Usage: "Retries per failed stage attempt",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "stage-timeout",
						Usage: "Time limit per stage attempt",
						Value: 300 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "no-auto-terms",
						Usage: "Do not create taxonomy terms for unmatched keywords",
					},
				),
			},
			{
				Name:   "reprocess",
				Usage:  "Clear a document's analysis and run the pipeline again",
				Action: reprocessCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Filename of the document to reprocess",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Allow reprocessing a completed document",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search completed documents",
				ArgsUsage: "[QUERY...]",
				Action:    searchCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Keep only documents with this primary category",
					},
					&cli.StringFlag{
						Name:  "subcategory",
						Usage: "Keep only documents with keywords under this subcategory",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Zero-indexed page of results",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Results per page",
						Value: search.DefaultPageSize,
					},
					&cli.BoolFlag{
						Name:  "facets",
						Usage: "Print facet counts alongside results",
					},
				),
			},
			{
				Name:      "import-taxonomy",
				Usage:     "Import canonical terms from a CSV file (primary_category,subcategory,term,synonyms)",
				ArgsUsage: "FILE",
				Action:    importTaxonomyCommand,
				Flags:     storageFlags(),
			},
			{
				Name:   "terms",
				Usage:  "List the canonical taxonomy terms",
				Action: termsCommand,
				Flags:  storageFlags(),
			},
			{
				Name:   "stuck",
				Usage:  "List documents stuck in the processing state",
				Action: stuckCommand,
				Flags: append(storageFlags(),
					&cli.DurationFlag{
						Name:  "threshold",
						Usage: "How long a document may process without an update",
						Value: 2 * time.Hour,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL for analysis and embeddings",
		},
		&cli.StringFlag{
			Name:  "analysis-model",
			Usage: "Model name for document analysis",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Model name for embeddings",
		},
	}
}

// openArchive resolves the configuration file and flags, validates the
// database path, and opens the archive.
func openArchive(c *cli.Context) (*canvass.Archive, error) {
	fc, err := loadFileConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	dbPath, aiCfg := fc.resolve(c.String("db"), c.String("host"),
		c.String("analysis-model"), c.String("embedding-model"))
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required (--db flag or db in config file)")
	}
	if err := aiCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return canvass.NewArchive(dbPath, canvass.WithAIConfig(aiCfg))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc := &core.Document{
			Filename:   filepath.Base(path),
			StorageRef: path,
			Text:       string(data),
			Status:     core.StatusPending,
		}
		added, err := archive.Ingest(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Printf("ingested %s (%d)\n", added[0].Filename, added[0].Id)
	}

	return nil
}

func processCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	cfg := pipeline.DefaultConfig()
	cfg.Workers = c.Int("workers")
	cfg.StageRetries = c.Int("retries")
	cfg.StageTimeout = c.Duration("stage-timeout")
	cfg.AutoCreateTerms = !c.Bool("no-auto-terms")

	orchestrator, err := archive.NewOrchestrator(pipeline.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	ctx := context.Background()

	if filename := c.String("file"); filename != "" {
		doc, err := archive.DocumentRepository().GetDocumentByFilename(ctx, filename)
		if err != nil {
			return fmt.Errorf("document %s: %w", filename, err)
		}
		if err := orchestrator.Process(ctx, doc.Id); err != nil {
			return err
		}
		fmt.Printf("processed %s\n", filename)
		return nil
	}

	processed, err := orchestrator.ProcessPending(ctx)
	fmt.Printf("processed %d documents\n", processed)
	return err
}

func reprocessCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	orchestrator, err := archive.NewOrchestrator()
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	ctx := context.Background()
	filename := c.String("file")
	doc, err := archive.DocumentRepository().GetDocumentByFilename(ctx, filename)
	if err != nil {
		return fmt.Errorf("document %s: %w", filename, err)
	}

	if err := orchestrator.Reprocess(ctx, doc.Id, c.Bool("force")); err != nil {
		return err
	}
	fmt.Printf("reprocessed %s\n", filename)
	return nil
}

func searchCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	engine, err := archive.NewSearchEngine()
	if err != nil {
		return err
	}

	resp, err := engine.Search(context.Background(), search.Request{
		Query:       strings.Join(c.Args().Slice(), " "),
		Category:    c.String("category"),
		Subcategory: c.String("subcategory"),
		Page:        c.Int("page"),
		PageSize:    c.Int("page-size"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d documents (page %d, %d per page)\n", resp.TotalCount, resp.Page, resp.PageSize)
	for _, hit := range resp.Hits {
		if hit.Score != nil {
			fmt.Printf("  %s [%0.3f] %s\n", hit.Document.Filename, *hit.Score, strings.Join(hit.Document.Categories, ", "))
		} else {
			fmt.Printf("  %s %s\n", hit.Document.Filename, strings.Join(hit.Document.Categories, ", "))
		}
	}

	if c.Bool("facets") && len(resp.Facets) > 0 {
		fmt.Println("facets:")
		for _, f := range resp.Facets {
			fmt.Printf("  %s: %d\n", f.Category, f.Count)
		}
	}

	return nil
}

func importTaxonomyCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one CSV file is required")
	}

	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	importer, err := taxonomy.NewImporter(archive.TaxonomyRepository(), slog.Default())
	if err != nil {
		return err
	}

	stats, err := importer.ImportCSV(context.Background(), f)
	if err != nil {
		return err
	}

	fmt.Printf("terms added: %d, skipped: %d, conflicts: %d, synonyms added: %d, rows rejected: %d\n",
		stats.TermsAdded, stats.TermsSkipped, stats.Conflicts, stats.SynonymsAdded, stats.RowsRejected)
	return nil
}

func termsCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	terms, err := archive.TaxonomyRepository().ListTerms(context.Background())
	if err != nil {
		return err
	}

	for _, t := range terms {
		if t.Subcategory != "" {
			fmt.Printf("%s (%s / %s)\n", t.Term, t.PrimaryCategory, t.Subcategory)
		} else {
			fmt.Printf("%s (%s)\n", t.Term, t.PrimaryCategory)
		}
	}
	fmt.Printf("%d terms\n", len(terms))
	return nil
}

func stuckCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	cutoff := time.Now().Add(-c.Duration("threshold"))
	docs, err := archive.DocumentRepository().ListStaleProcessing(context.Background(), cutoff)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("no stuck documents")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s (%d) last update %s, progress %d%%\n",
			doc.Filename, doc.Id, doc.UpdatedAt.Format(time.RFC3339), doc.Progress)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
