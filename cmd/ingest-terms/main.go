package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"termbridge/internal/config"
	"termbridge/internal/database"
	"termbridge/internal/domain"
	"termbridge/internal/ingest"
	"termbridge/internal/logger"
	"termbridge/internal/repository"
)

// ingest-terms loads one tabular source into the term store, or a curated
// concept-map CSV into the concept map. The running API server rebuilds its
// index from the store on start, so no index handling happens here.
//
//	ingest-terms -file NAMASTE.csv -source NAMASTE -dataset-version 1.0
//	ingest-terms -file ICD11.xlsx -source ICD-11 -dataset-version 2025-09 -sheet Sheet1
//	ingest-terms -mappings concept_map.csv
func main() {
	var (
		file     = flag.String("file", "", "term source file (.csv, .xlsx)")
		source   = flag.String("source", "", "source system of the file (NAMASTE, ICD-11)")
		version  = flag.String("dataset-version", "", "source dataset revision tag")
		sheet    = flag.String("sheet", "", "spreadsheet sheet name (default: first sheet)")
		mappings = flag.String("mappings", "", "concept-map CSV to ingest instead of terms")
	)
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "ingest-terms")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	termsRepo := repository.NewPostgresTermsRepo(db)
	conceptsRepo := repository.NewPostgresConceptMapRepo(db)
	pipeline := ingest.NewPipeline(termsRepo, conceptsRepo, nil, log)

	ctx := context.Background()

	if *mappings != "" {
		f, err := os.Open(*mappings)
		if err != nil {
			log.Fatal("failed to open mappings file", zap.Error(err))
		}
		defer f.Close()

		summary, err := pipeline.RunMappings(ctx, f)
		if err != nil {
			log.Fatal("mapping ingestion failed", zap.Error(err))
		}
		logRowErrors(log, summary.Errors)
		return
	}

	if *file == "" || *source == "" {
		flag.Usage()
		os.Exit(2)
	}
	sourceSystem := domain.ParseSourceSystem(*source)
	if sourceSystem == "" {
		log.Fatal("unknown source system", zap.String("source", *source))
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("failed to open source file", zap.Error(err))
	}
	defer f.Close()

	var reader ingest.Reader
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".xlsx", ".xlsm", ".xls":
		reader = ingest.NewExcelReader(f, *sheet)
	default:
		reader = ingest.NewCSVReader(f)
	}

	summary, err := pipeline.Run(ctx, reader, sourceSystem, *version)
	if err != nil {
		log.Fatal("term ingestion failed", zap.Error(err))
	}
	logRowErrors(log, summary.Errors)
}

func logRowErrors(log *zap.Logger, errs []*domain.RowError) {
	for _, re := range errs {
		log.Warn("row skipped", zap.Int("row", re.Row), zap.String("reason", re.Reason))
	}
}
