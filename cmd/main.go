package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nas_control/internal/config"
	"nas_control/internal/handlers"
	"nas_control/internal/logger"
	"nas_control/internal/repository"
	"nas_control/internal/repository/db"
	"nas_control/internal/server"
	"nas_control/internal/service"
	"nas_control/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yml (default configs/config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	if sqlDB != nil {
		defer func() {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Errorw("failed to close sqlite", "err", cerr)
			}
		}()
	}

	loc, err := cfg.Device.TimeLocation()
	if err != nil {
		log.Fatalw("invalid device location", "err", err)
	}

	// wire dependencies
	api := transport.NewClient(transport.Options{
		BaseURL:   cfg.Device.BaseURL,
		APIPrefix: cfg.Device.APIPrefix,
		Timeout:   cfg.Device.Timeout,
		Location:  loc,
		Log:       log,
	})
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(api, repos, log, service.Options{
		Location:      loc,
		ActionTimeout: cfg.Poll.ActionTimeout,
		DefaultOffset: cfg.Schedule.DefaultOffsetMinutes,
		Poll: service.PollConfig{
			Fast:            cfg.Poll.Fast,
			Slow:            cfg.Poll.Slow,
			Countdown:       cfg.Poll.Countdown,
			ShutdownRefresh: cfg.Poll.ShutdownRefresh,
		},
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("nas_control_starting", "device", cfg.Device.BaseURL, "port", cfg.Port)
	go services.Scheduler.Run(ctx)

	srv := server.New(cfg.Port, apiHandler.InitRoutes(), log)
	runHTTPServer(srv, log)

	waitForShutdown(cancel, srv, log)
}

// openDB opens the settings database; an empty path keeps settings in memory.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set; client settings kept in memory")
		return nil, nil
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err, "addr", srv.Addr())
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the poll timers; in-flight device calls still complete
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
