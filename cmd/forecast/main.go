// cmd/forecast/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandcast/internal/api"
	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/dataset"
	"github.com/andresuchdata/demandcast/internal/pipeline"
	"github.com/andresuchdata/demandcast/internal/report"
	"github.com/andresuchdata/demandcast/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/andresuchdata/demandcast/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Demand forecasting and reorder recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the batch pipeline and write reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Usage:   "Input CSV file with sales history",
						EnvVars: []string{"FORECAST_INPUT"},
					},
					&cli.BoolFlag{
						Name:  "from-db",
						Usage: "Load sales history from the database instead of a CSV file",
					},
					&cli.BoolFlag{
						Name:  "save-db",
						Usage: "Persist recommendations and predictions to the database",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload run artifacts to object storage",
					},
				},
				Action: runPipeline,
			},
			{
				Name:   "serve",
				Usage:  "Serve stored recommendations over HTTP",
				Action: runServer,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	ctx := c.Context

	var loader pipeline.Loader
	switch {
	case c.Bool("from-db"):
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		loader = dataset.NewSQLLoader(db.DB)
	case c.String("input") != "":
		loader = dataset.NewCSVLoader(c.String("input"))
	default:
		return fmt.Errorf("either --input or --from-db is required")
	}

	runner := pipeline.NewRunner(loader, cfg.Forecast, logger.Log)
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	stamp := now.Format("20060102_150405")
	outputDir := cfg.Forecast.OutputDir

	predictionsPath := filepath.Join(outputDir, "predictions_"+stamp+".csv")
	recommendationsPath := filepath.Join(outputDir, "recommendations_"+stamp+".csv")
	summaryPath := filepath.Join(outputDir, "report_"+stamp+".txt")

	if err := report.WritePredictionsCSV(predictionsPath, result.Predictions); err != nil {
		return err
	}
	if err := report.WriteRecommendationsCSV(recommendationsPath, result.Recommendations); err != nil {
		return err
	}
	if err := report.WriteSummary(summaryPath, result, now); err != nil {
		return err
	}
	logger.Log.Info().
		Str("predictions", predictionsPath).
		Str("recommendations", recommendationsPath).
		Str("report", summaryPath).
		Msg("artifacts written")

	report.WriteSummaryStdout(result, now)

	if c.Bool("save-db") {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		recCache, err := cache.NewRecommendationCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
			recCache = cache.NewNoopRecommendationCache()
		}

		svc := service.NewRecommendationService(postgres.NewForecastRepository(db), recCache)
		if err := svc.Publish(ctx, result.Recommendations, result.Predictions); err != nil {
			return fmt.Errorf("persisting run outputs: %w", err)
		}
		logger.Log.Info().Msg("run outputs persisted")
	}

	if c.Bool("upload") || cfg.Storage.Enabled {
		uploader, err := report.NewUploader(cfg.Storage, logger.Log)
		if err != nil {
			return err
		}
		prefix := "forecast/" + now.Format("2006-01-02")
		for _, p := range []string{predictionsPath, recommendationsPath, summaryPath} {
			if err := uploader.UploadFile(ctx, prefix, p); err != nil {
				return err
			}
		}
	}

	return nil
}

func runServer(c *cli.Context) error {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	recCache, err := cache.NewRecommendationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		recCache = cache.NewNoopRecommendationCache()
	}

	services := &api.Services{
		RecommendationService: service.NewRecommendationService(
			postgres.NewForecastRepository(db), recCache),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info().Msg("Server exiting")
	return nil
}
