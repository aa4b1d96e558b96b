package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/EvanCNavarro/invela/internal/server"
	"github.com/EvanCNavarro/invela/pkg/config"
	applogger "github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/notifier"
	"github.com/EvanCNavarro/invela/pkg/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	router "github.com/goliatone/go-router"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg := config.Defaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	lgr := applogger.NewLogrus(base)

	providers, db, err := buildStorage(cfg)
	if err != nil {
		log.Fatalf("configure storage: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	module, err := notifier.NewModule(notifier.ModuleOptions{
		Config:  cfg,
		Storage: providers,
		Logger:  lgr,
	})
	if err != nil {
		log.Fatalf("assemble module: %v", err)
	}

	app, err := server.NewApp(cfg, module, lgr)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}
	defer app.Close()

	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName: "Invela Platform",
		}))
	})
	srv.WrappedRouter().Use(cors.New())

	app.SetupRoutes(srv.Router())
	app.RegisterWebSocket(srv.Router())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if relay := module.Relay(); relay != nil {
		go relay.Run(ctx)
	}

	go func() {
		if err := srv.Serve(cfg.Server.Addr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()
	lgr.Info("server started", applogger.Field{Key: "addr", Value: cfg.Server.Addr})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("shutting down")
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown error", applogger.Field{Key: "error", Value: err.Error()})
	}
}

func buildStorage(cfg config.Config) (storage.Providers, *bun.DB, error) {
	if cfg.Persistence.Driver != config.DriverSQLite {
		return storage.NewMemoryProviders(), nil, nil
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.DSN)
	if err != nil {
		return storage.Providers{}, nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	return storage.NewBunProviders(db), db, nil
}
