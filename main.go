// main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/providers"
	"github.com/GeoRank-AI/georank-workflows/internal/store"
	"github.com/GeoRank-AI/georank-workflows/services"
	"github.com/GeoRank-AI/georank-workflows/workflows"
)

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	return db, nil
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err == nil {
			log.Printf("Loaded dev.env file for local development")
		}
	} else {
		log.Printf("Loaded .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))

	repos := store.NewManager(db)

	answerProvider, err := providers.NewProvider(cfg.Provider.AnswerModel, cfg)
	if err != nil {
		logger.Fatal("failed to build answer provider", zap.Error(err))
	}
	validationProvider, err := providers.NewProvider(cfg.Provider.ValidationModel, cfg)
	if err != nil {
		logger.Fatal("failed to build validation provider", zap.Error(err))
	}

	costService := services.NewCostService()
	answerService := services.NewAnswerService(answerProvider, costService, cfg.Provider.WebSearchEnabled)
	rankService := services.NewRankService(
		validationProvider,
		services.WeightPolicyByName(cfg.Pipeline.WeightPolicy),
		cfg.Pipeline.ValidateMentions,
	)
	topicService := services.NewTopicService(validationProvider)
	executor := services.NewBatchExecutor(answerService, rankService, repos.Queries, repos.Analyses, cfg.Pipeline)
	aggregator := services.NewAggregationService(repos.Queries, repos.Reports)
	pipeline := services.NewPipelineService(repos.Analyses, repos.Queries, topicService, executor, aggregator)

	client, err := inngestgo.NewClient(inngestgo.ClientOpts{
		AppID:    "georank-workflows",
		EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
		Env:      inngestgo.StrPtr(cfg.Environment),
	})
	if err != nil {
		logger.Fatal("failed to create Inngest client", zap.Error(err))
	}

	analysisProcessor := workflows.NewAnalysisProcessor(pipeline, cfg)
	analysisProcessor.SetClient(client)
	analysisProcessor.RunAnalysisPipeline()
	pipeline.SetDispatcher(workflows.NewEventDispatcher(client))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "georank-workflows", "status": "running"})
	})

	r.Handle("/api/inngest", client.Serve())

	r.Post("/api/analyses", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			InstitutionName string `json:"institution_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstitutionName == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "institution_name is required"})
			return
		}
		analysisID, err := pipeline.StartAnalysis(r.Context(), req.InstitutionName)
		if err != nil {
			logger.Error("failed to start analysis", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start analysis"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"analysis_id": analysisID.String()})
	})

	r.Get("/api/analyses/{id}/progress", func(w http.ResponseWriter, r *http.Request) {
		analysisID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid analysis id"})
			return
		}
		progress, err := pipeline.GetProgress(r.Context(), analysisID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
			return
		}
		writeJSON(w, http.StatusOK, progress)
	})

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}
