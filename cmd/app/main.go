package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/cloudcrash/panel-proxy/cmd/config"
	"github.com/cloudcrash/panel-proxy/internal/application/model"
	"github.com/cloudcrash/panel-proxy/internal/application/rewrite"
	"github.com/cloudcrash/panel-proxy/internal/application/service"
	"github.com/cloudcrash/panel-proxy/internal/handlers"
	"github.com/cloudcrash/panel-proxy/internal/infrastructure/gateway"
	"github.com/cloudcrash/panel-proxy/internal/infrastructure/limiter"
	"github.com/cloudcrash/panel-proxy/internal/infrastructure/repository"
	"github.com/cloudcrash/panel-proxy/internal/infrastructure/repository/plugins"
	"github.com/cloudcrash/panel-proxy/internal/scheduler"
	scheduler_worker "github.com/cloudcrash/panel-proxy/internal/scheduler/worker"
)

func main() {
	// ============================================
	// 設定の読み込み
	// ============================================
	conf := config.LoadConfig()

	// ============================================
	// 設定とインフラストラクチャの初期化
	// ============================================

	// キャッシュバックエンドに応じてクライアントを選択
	var repoClient repository.CacheClient
	switch conf.Cache.Backend {
	case "redis":
		log.Printf("Using redis cache backend (%s:%d, db=%d)",
			conf.RedisClient.Host, conf.RedisClient.Port, conf.RedisClient.DB)
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", conf.RedisClient.Host, conf.RedisClient.Port),
			Password: conf.RedisClient.Password,
			DB:       conf.RedisClient.DB,
		})
		redisConfig := plugins.RedisClientConfig{
			PrefetchQueueKey: conf.RedisKeys.PrefetchQueueKey,
			CacheKeyPattern:  conf.RedisKeys.CacheKeyPrefix + "*",
			ScanCount:        conf.RedisKeys.ScanCount,
		}
		repoClient = plugins.NewRedisClient(redisClient, redisConfig)
	case "memory":
		log.Printf("Using in-memory cache backend (queue size=%d)", conf.Worker.QueueSize)
		repoClient = plugins.NewMemoryClient(conf.Worker.QueueSize)
	default:
		log.Fatalf("Invalid cache backend: %s (use 'memory' or 'redis')", conf.Cache.Backend)
	}

	responseCache := repository.NewCacheRepository(repoClient, conf.RedisKeys.CacheKeyPrefix)

	// アップストリーム設定の検証とゲートウェイの初期化
	target, err := model.NewProxyTarget(
		conf.Upstream.BaseURL,
		conf.Upstream.DefaultHeaders,
		conf.Upstream.Timeout,
		conf.Upstream.ForwardCookies,
	)
	if err != nil {
		log.Fatalf("Failed to initialize proxy target: %v", err)
	}
	upstreamGateway := gateway.NewHTTPGateway(target)

	// ============================================
	// アプリケーション層の初期化
	// ============================================

	rateLimiter := limiter.NewWindowLimiter(conf.RateLimit.Limit, conf.RateLimit.Window)
	rewriter := rewrite.NewRewriter("/fetch")

	proxyService := service.NewProxyService(
		upstreamGateway,
		responseCache,
		rateLimiter,
		rewriter,
		target,
		conf.Cache.DefaultTTL,
		conf.Worker.PrefetchEnabled,
	)
	proxyHandler := handlers.NewProxyHandler(proxyService, conf.Server.ViewerPath)

	// ============================================
	// サーバーのセットアップ
	// ============================================

	if conf.Server.Mode == config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// gin.Default() の代わりに gin.New() を使用してカスタムロガーを設定
	r := gin.New()
	r.Use(gin.Recovery())

	// セキュリティヘッダーを追加するミドルウェア
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Next()
	})

	// カスタム Logger: デフォルトとほぼ同じ形式で出す
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s  %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
		)
	}))

	r.GET("/", proxyHandler.Index)
	r.GET("/proxy", proxyHandler.ProxyPage)
	r.GET("/fetch", proxyHandler.FetchResource)

	// 管理用エンドポイント: キャッシュの一括削除
	r.POST("/system/admin/cache/cleanup", func(c *gin.Context) {
		ctx := c.Request.Context()
		err := responseCache.DeleteAllCaches(ctx)
		if err != nil {
			c.JSON(500, gin.H{
				"error":   "Failed to cleanup cache",
				"message": err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"message": "Cache cleanup completed successfully",
		})
	})

	// ============================================
	// Worker Poolの起動（プリフェッチ処理）
	// ============================================
	reqHandler := scheduler_worker.NewRequestHandler(responseCache, upstreamGateway, conf.Cache.DefaultTTL)
	queueWatcher := scheduler_worker.NewQueueWatcher(responseCache, conf.Worker.QueueWatchTimeout)
	cacheHandler := scheduler_worker.NewCacheHandler(responseCache)
	processor := scheduler.NewPrefetchProcessor(conf.Worker.Workers, reqHandler, queueWatcher, cacheHandler, conf.Cache.CleanupInterval)
	ctx := context.Background()
	if err := processor.Start(ctx); err != nil {
		log.Fatalf("Failed to start prefetch processor: %v", err)
	}

	// ============================================
	// HTTPサーバーの起動
	// ============================================
	addr := fmt.Sprintf(":%d", conf.Server.Port)
	log.Printf("HTTPサーバーを起動します... (ポート: %d)", conf.Server.Port)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
