// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/authenticator/internal/auth"
	"github.com/yourusername/authenticator/internal/config"
	"github.com/yourusername/authenticator/internal/jobs"
	"github.com/yourusername/authenticator/internal/logging"
	"github.com/yourusername/authenticator/internal/mail"
)

const (
	serviceName    = "authenticator-api"
	serviceVersion = "0.1.0"

	shutdownTimeout = 10 * time.Second
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	logger := logging.New(os.Stdout, !cfg.IsRelease())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ユーザーストア
	store, err := openUserStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn(closeCtx, "failed to close user store", "error", err)
		}
	}()

	// メール配送（MAIL_ASYNC=true のときはキュー経由）
	sender, mailJobs, err := setupMail(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up mail delivery: %v", err)
	}
	if mailJobs != nil {
		mailJobs.StartWorkers()
		defer func() {
			if err := mailJobs.Shutdown(context.Background()); err != nil {
				logger.Warn(context.Background(), "failed to stop mail workers", "error", err)
			}
		}()
	}

	signer := auth.NewSigner(cfg.JWTSecret)
	notifier := mail.NewNotifier(sender, cfg.ClientURL)
	svc := auth.NewService(cfg, store, notifier, signer, logger)
	authManager := auth.NewManager(cfg, svc, signer, logger)

	router := setupRouter(cfg, authManager, mailJobs, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "starting API server", "addr", srv.Addr, "mode", cfg.GinMode, "store", cfg.StoreDriver, "mail_async", cfg.MailAsync)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", "error", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// setupRouter はミドルウェアとルーティングを設定したエンジンを返します。
// mailJobs が nil の場合、配送状況 API は登録しません。
func setupRouter(cfg *config.Config, authManager *auth.Manager, mailJobs *jobs.Manager, logger logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(logger))

	// CORSミドルウェアの設定（クッキーを送るため AllowCredentials が必要）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager.RegisterRoutes(router.Group(cfg.APIPrefix))

	// 配送状況の確認は開発時のみ
	if mailJobs != nil && !cfg.IsRelease() {
		router.GET("/internal/mail-jobs/:id", mailJobStatusHandler(mailJobs))
	}

	return router
}
