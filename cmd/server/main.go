package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bullion_backend/internal/app/di"
	"bullion_backend/internal/app/router"
	pagehandler "bullion_backend/internal/feature/chart/transport/handler"
	priceshandler "bullion_backend/internal/feature/prices/transport/handler"
	pricesusecase "bullion_backend/internal/feature/prices/usecase"
	"bullion_backend/internal/platform/config"
	platformdb "bullion_backend/internal/platform/db"
	platformhandler "bullion_backend/internal/platform/http/handler"
	platformredis "bullion_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 設定
	cfg, err := config.Load(os.Getenv("DASHBOARD_CONFIG"))
	if err != nil {
		return err
	}

	// db
	db, err := platformdb.OpenDB(platformdb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis
	rdb, err := platformredis.NewRedisClient(ctx)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository（Redisがあればキャッシュでラップ）
	priceRepo, cached, err := di.NewPriceRepository(db, rdb, cfg)
	if err != nil {
		return err
	}

	// キャッシュ破棄ジョブ
	sched, err := di.NewScheduler(ctx, cached, cfg)
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	// Usecase / Handler
	pricesH := priceshandler.NewPricesHandler(pricesusecase.NewPricesUsecase(priceRepo))
	pageH := pagehandler.NewPageHandler(di.NewPageView(cfg))
	healthH := platformhandler.NewHealthHandler(sqlDB)

	// ルータ生成
	r, err := router.NewRouter(router.Options{CORSAllowOrigins: cfg.Server.CORSAllowOrigins}, healthH, pricesH, pageH)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
