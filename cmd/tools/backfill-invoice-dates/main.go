// cmd/tools/backfill-invoice-dates/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paperless-workers/internal/backfill"
	"paperless-workers/internal/common/config"
	"paperless-workers/internal/common/database"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml lookup)")
	limit := flag.Int("limit", 0, "Maximum number of documents to process (0 = all)")
	afterID := flag.Int64("after-id", 0, "Resume behind this document id (the lastId of an earlier run)")
	pageSize := flag.Int("page-size", backfill.DefaultPageSize, "Documents read per query")
	dryRun := flag.Bool("dry-run", false, "Report found dates without writing them")
	flag.Parse()

	opts := backfill.Options{Limit: *limit, AfterID: *afterID, PageSize: *pageSize, DryRun: *dryRun}
	if err := run(*configPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, opts backfill.Options) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewZapAdapter(logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, "stderr"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return err
	}

	var indexer search.Indexer = search.NoopIndexer{}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	if es != nil {
		indexer = search.NewESIndexer(es, cfg.Database.Elasticsearch.Index)
	}

	extractor, err := dateextract.NewExtractor(dateextract.Config{
		Keywords:      cfg.Extractor.Keywords,
		WindowSize:    cfg.Extractor.WindowSize,
		MinDate:       cfg.Extractor.MinDate,
		MaxFutureDays: cfg.Extractor.MaxFutureDays,
	})
	if err != nil {
		return err
	}

	summary, err := backfill.NewRunner(repository.New(pg.DB), extractor, indexer, log).Run(ctx, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
