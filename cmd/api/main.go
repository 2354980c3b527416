package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/pflag"

	"github.com/seanblong/resumesearch/internal/agentic"
	"github.com/seanblong/resumesearch/internal/auth"
	"github.com/seanblong/resumesearch/internal/classic"
	"github.com/seanblong/resumesearch/internal/config"
	"github.com/seanblong/resumesearch/internal/httpapi"
	"github.com/seanblong/resumesearch/internal/providers/intent"
	rerankhttp "github.com/seanblong/resumesearch/internal/providers/rerank"
	"github.com/seanblong/resumesearch/internal/rerank"
	"github.com/seanblong/resumesearch/internal/store"
)

func main() {
	fs := pflag.NewFlagSet("resumesearch-api", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	logger.Info().Str("provider", cfg.Provider).Str("log_level", cfg.LogLevel).Bool("auth_enabled", cfg.Auth.Enabled).Msg("starting resumesearch api")

	ctx := context.Background()

	embedClient, llm, err := buildProviders(ctx, &cfg)
	if err != nil {
		log.Fatalf("Failed to build providers: %v", err)
	}
	logger.Info().Int("embedding_dim", embedClient.Dim()).Str("embed_model", cfg.EmbedModel).Msg("embedding provider initialized")

	auth.InitializeAuth(cfg.Auth.JwtSecret, cfg.Auth.Enabled)

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx, embedClient.Dim()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var reranker rerank.Adapter
	if strings.TrimSpace(cfg.RerankEndpoint) != "" {
		reranker = rerankhttp.NewClient(cfg.RerankEndpoint, cfg.RerankAPIKey)
		logger.Info().Str("rerank_endpoint", cfg.RerankEndpoint).Msg("reranking enabled")
	} else {
		logger.Info().Msg("no rerank endpoint configured: reranking disabled")
	}

	extractor := intent.NewDefaultExtractor(llm)

	orchestrator := &classic.Orchestrator{
		Ledger:   st,
		Resumes:  st,
		Lexical:  st,
		Dense:    st,
		Embedder: embedClient,
		Rerank:   reranker,
	}
	pipeline := &agentic.Pipeline{
		Extractor: extractor,
		Ledger:    st,
		Resumes:   st,
		Lexical:   st,
		Dense:     st,
		Embedder:  embedClient,
		Rerank:    reranker,
	}

	mux := httpapi.NewMux(&httpapi.Handlers{
		Classic: orchestrator,
		Agentic: pipeline,
		Store:   st,
	})

	handler := hlog.NewHandler(logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			logger.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Int("size", size).Dur("dur", dur).Msg("http")
		})(mux),
	)

	address := fmt.Sprintf(":%d", cfg.Port)
	s := &http.Server{Addr: address, Handler: handler}
	logger.Info().Str("addr", s.Addr).Msg("api server listening")
	log.Fatal(s.ListenAndServe())
}
