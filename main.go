package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/woguri/woguri"
	"github.com/ellavondegurechaff/woguri/woguri/commands"
	"github.com/ellavondegurechaff/woguri/woguri/database"
	"github.com/ellavondegurechaff/woguri/woguri/database/repositories"
	"github.com/ellavondegurechaff/woguri/woguri/handlers"
	"github.com/ellavondegurechaff/woguri/woguri/leaderboard"
	"github.com/ellavondegurechaff/woguri/woguri/logger"
	"github.com/ellavondegurechaff/woguri/woguri/migration"
	"github.com/ellavondegurechaff/woguri/woguri/scores"
	"github.com/ellavondegurechaff/woguri/woguri/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Woguri Wordle Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	shouldImportLegacy := flag.Bool("import-legacy", false, "Import scores from the legacy Mongo archive before starting")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := woguri.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	b := woguri.New(*cfg, version, commit)
	b.DB = db
	b.ScoreRepository = repositories.NewScoreRepository(db.BunDB())
	b.ScoreService = scores.NewService(b.ScoreRepository)
	b.Aggregator = leaderboard.NewAggregator(b.ScoreRepository)
	b.Gate = leaderboard.NewGate()
	b.ImageService = services.NewLeaderboardImageService()

	if cfg.Spaces.Key != "" {
		spacesService, err := services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.Root,
		)
		if err != nil {
			slog.Error("Failed to initialize Spaces service", slog.Any("error", err))
			os.Exit(-1)
		}
		b.SpacesService = spacesService
	}

	if *shouldImportLegacy {
		slog.Info("Importing legacy scores",
			slog.String("type", "sys"),
			slog.String("database", cfg.Mongo.Database),
			slog.String("collection", cfg.Mongo.Collection))

		importCtx, importCancel := context.WithTimeout(context.Background(), 30*time.Minute)
		importer := migration.NewImporter(b.ScoreRepository, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if _, err := importer.Run(importCtx); err != nil {
			importCancel()
			slog.Error("Legacy import failed", slog.Any("error", err))
			os.Exit(-1)
		}
		importCancel()
	}

	h := handler.New()

	// Score recording
	h.Command("/addscore", handlers.WrapWithLogging("addscore", commands.AddScoreHandler(b)))
	h.Command("/fixscore", handlers.WrapWithLogging("fixscore", commands.FixScoreHandler(b)))

	// Leaderboards and stats
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/alltime", handlers.WrapWithLogging("alltime", commands.AllTimeHandler(b)))
	h.Command("/stats", handlers.WrapWithLogging("stats", commands.StatsHandler(b)))
	h.Command("/lbstatus", handlers.WrapWithLogging("lbstatus", commands.LeaderboardStatusHandler(b)))

	// Administration
	h.Command("/resetscores", handlers.WrapWithLogging("resetscores", commands.ResetScoresHandler(b)))
	h.Command("/version", commands.VersionHandler(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady), handlers.WordleListener(b)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
