package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgres "github.com/ecomanager/ecomanager/internal/adapters/db/postgres"
	myRedis "github.com/ecomanager/ecomanager/internal/adapters/db/redis"
	"github.com/ecomanager/ecomanager/internal/app/auth/jwt"
	appsvc "github.com/ecomanager/ecomanager/internal/app/auth/service"
	"github.com/ecomanager/ecomanager/internal/infra/config"
	"github.com/ecomanager/ecomanager/internal/infra/db"
	lg "github.com/ecomanager/ecomanager/internal/infra/log"
	"github.com/ecomanager/ecomanager/internal/infra/migrate"
	transport "github.com/ecomanager/ecomanager/internal/transport/http"
	httpmw "github.com/ecomanager/ecomanager/internal/transport/http/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	handles := db.New(cfg)
	defer handles.Close()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	gormDB, err := handles.Gorm(startCtx)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli, err := handles.Redis(startCtx)
	if err != nil {
		zapLog.Fatal("failed to connect to redis", zap.Error(err))
	}

	codec, err := jwt.NewCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	validate := appsvc.NewValidator()
	userRepo := myPostgres.NewUserRepo(gormDB)
	ecoRepo := myPostgres.NewEcoRepo(gormDB)
	ledger := myRedis.NewSessionLedger(redisCli)
	svc := appsvc.New(userRepo, ledger, codec, validate)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.Metrics())
	router.Use(httpmw.RateLimitPerIP(50, 100, 10_000, time.Hour))
	router.Use(httpmw.RequestTimeout(cfg.RequestTimeout))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization",
				"X-Requested-With",
			},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	handler := transport.NewHandler(svc, userRepo, ecoRepo, ecoRepo, ecoRepo, codec, validate, zapLog)
	handler.Routes(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}

	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
