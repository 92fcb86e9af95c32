package main

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/pkg/database"
	"Vitrin/internal/pkg/es"
	"Vitrin/internal/pkg/logger"
	"Vitrin/internal/pkg/minio"
	"Vitrin/internal/pkg/mongo"
	"Vitrin/internal/pkg/redis"
	"Vitrin/internal/pkg/security"
	"Vitrin/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg
	gin.SetMode(cfg.Server.Mode)
	logger.InitLogger()

	db, mongoDB, err := connect(cfg)
	if err != nil {
		log.Error("Fatal error: failed to initialize infrastructure", "err", err)
		os.Exit(1)
	}
	defer redis.Close()

	app, err := wire.BuildApplication(db, mongoDB, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		os.Exit(1)
	}

	if err = run(app, cfg.Server.Port, mongoDB); err != nil {
		log.Error("App exited with error", "err", err)
		os.Exit(1)
	}
	log.Info("App exited successfully.")
}

// connect 依次建立各存储的连接，任一失败即退出
func connect(cfg *config.Config) (*gorm.DB, *mongodriver.Database, error) {
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: %w", err)
	}
	if err = redis.InitRedis(cfg.Redis); err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	mongoDB, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	if err = minio.Init(); err != nil {
		return nil, nil, fmt.Errorf("minio: %w", err)
	}
	if err = es.InitClient(); err != nil {
		return nil, nil, fmt.Errorf("elasticsearch: %w", err)
	}
	if err = security.InitJWT(cfg.JWT); err != nil {
		return nil, nil, fmt.Errorf("jwt: %w", err)
	}
	return db, mongoDB, nil
}

// run 启动 HTTP、定时任务和 Kafka 消费者，收到退出信号后依次关闭
func run(app *wire.ApplicationContainer, port int, mongoDB *mongodriver.Database) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if err := app.CronMgr.Start(); err != nil {
		return fmt.Errorf("start cron: %w", err)
	}
	g.Go(func() error {
		<-ctx.Done()
		app.CronMgr.Stop()
		return nil
	})

	if app.KafkaManager != nil {
		g.Go(func() error {
			log.Info("Kafka Consumers starting...")
			return app.KafkaManager.Start(ctx)
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
			log.Error("Mongo disconnect failed", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
