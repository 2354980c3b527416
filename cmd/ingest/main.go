package main

import (
	"context"
	"log"

	"github.com/spf13/pflag"

	"github.com/seanblong/resumesearch/internal/config"
	"github.com/seanblong/resumesearch/internal/ingest"
	"github.com/seanblong/resumesearch/internal/providers/embed"
	"github.com/seanblong/resumesearch/internal/store"
)

// cmd/ingest seeds a database with development/test fixtures (spec.md's
// production ingestion pipeline is out of scope for this domain; this is
// only a way to exercise the query paths against real data).
func main() {
	fs := pflag.NewFlagSet("resumesearch-ingest", pflag.ExitOnError)
	fixtureRoot := fs.String("fixtures", "", "Path to a directory of *.json resume fixtures")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	if *fixtureRoot == "" {
		log.Fatal("--fixtures is required")
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	dim := cfg.EmbedDim
	if dim <= 0 {
		dim = 768
	}
	embedClient, err := embed.NewClient(ctx, &embed.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.EmbedModel,
		Dim:       dim,
		ProjectID: cfg.ProjectID,
		Location:  cfg.Location,
		Provider:  embed.Provider(cfg.Provider),
	})
	if err != nil {
		log.Fatalf("Failed to build embedding client: %v", err)
	}

	if err := st.Migrate(ctx, embedClient.Dim()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	loader := ingest.New(st, embedClient)
	if err := loader.Run(ctx, *fixtureRoot); err != nil {
		log.Fatalf("Fixture load failed: %v", err)
	}
}
