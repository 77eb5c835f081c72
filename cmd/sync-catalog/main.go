package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/repository"
	"hotelbook/internal/search"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall sync deadline")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	if !cfg.Elasticsearch.Enabled() {
		logger.Fatal("Elasticsearch is not configured, set ELASTICSEARCH_URL")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("Starting catalog synchronization", "index", cfg.Elasticsearch.Index)
	if err := syncCatalog(ctx, repository.NewPropertyRepository(db), es); err != nil {
		logger.Fatal("Catalog synchronization failed", "error", err)
	}
}

func syncCatalog(ctx context.Context, properties *repository.PropertyRepository, es *search.ElasticsearchClient) error {
	start := time.Now()

	rooms, err := properties.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}
	areas, err := properties.ListAreas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list areas: %w", err)
	}

	docs := make([]models.Property, 0, len(rooms)+len(areas))
	for i := range rooms {
		docs = append(docs, rooms[i].AsProperty())
	}
	for i := range areas {
		docs = append(docs, areas[i].AsProperty())
	}

	failed := 0
	for _, p := range docs {
		if err := es.IndexProperty(ctx, p); err != nil {
			failed++
			logger.Get().Error("Failed to index property", "kind", p.Kind, "id", p.ID, "error", err)
		}
	}

	elapsed := time.Since(start)
	logger.Get().Info("Catalog synchronization completed",
		"rooms", len(rooms),
		"areas", len(areas),
		"failed", failed,
		"duration", elapsed.String())

	if failed > 0 {
		return fmt.Errorf("%d of %d properties failed to index", failed, len(docs))
	}
	return nil
}
