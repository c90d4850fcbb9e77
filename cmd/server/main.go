package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/config"
	httpserver "github.com/millworks/tariffmill/internal/interfaces/http"
	"github.com/millworks/tariffmill/internal/repository"
	"github.com/millworks/tariffmill/internal/services"
	"github.com/millworks/tariffmill/internal/templategen"
	"github.com/millworks/tariffmill/pkg/database"
	"github.com/millworks/tariffmill/pkg/utils"
)

func main() {
	// .env is optional; environment beats file either way.
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting tariff reconciliation server",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.InitSchema(db, logger); err != nil {
		logger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	ruleRepo := repository.NewRuleRepository(db.DB, logger)
	profileRepo := repository.NewProfileRepository(db.DB, logger)

	reconcile, err := services.NewReconcileService(ruleRepo, profileRepo, cfg.Pipeline.Concurrency, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reconciliation service", zap.Error(err))
	}

	// Seed the rule table from a configured source when the store is empty.
	if cfg.Pipeline.RulesFile != "" && reconcile.Snapshot().Len() == 0 {
		if _, err := reconcile.ImportRules(cfg.Pipeline.RulesFile); err != nil {
			logger.Fatal("Failed to load seed rules",
				zap.String("file", cfg.Pipeline.RulesFile),
				zap.Error(err))
		}
	}

	var suggester httpserver.PatternSuggester
	if cfg.OpenAI.APIKey != "" {
		suggester = templategen.NewSuggester(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	} else {
		logger.Info("Pattern suggestion disabled, no API key configured")
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reconcile, suggester, utils.NewLoggerAdapter(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
