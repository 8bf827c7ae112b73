package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/sh1zukey/TheGameOnline-BE/internal/config"
	"github.com/sh1zukey/TheGameOnline-BE/internal/connection"
	"github.com/sh1zukey/TheGameOnline-BE/internal/deck"
	"github.com/sh1zukey/TheGameOnline-BE/internal/game"
	"github.com/sh1zukey/TheGameOnline-BE/internal/handler"
	"github.com/sh1zukey/TheGameOnline-BE/internal/health"
	gameNats "github.com/sh1zukey/TheGameOnline-BE/internal/nats"
	"github.com/sh1zukey/TheGameOnline-BE/internal/repository"
	"github.com/sh1zukey/TheGameOnline-BE/internal/room"
	"github.com/sh1zukey/TheGameOnline-BE/internal/server"
	"github.com/sh1zukey/TheGameOnline-BE/internal/snowflake"
	"github.com/sh1zukey/TheGameOnline-BE/internal/store"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接 NATS（可选）
	var natsClient *gameNats.Client
	var publisher handler.LifecyclePublisher
	if cfg.NATS.URL != "" {
		natsClient, err = gameNats.NewClient(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = gameNats.NewLifecyclePublisher(natsClient.Conn())
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	// 连接数据库（可选）
	var db *pgxpool.Pool
	var resultRepo *repository.ResultRepository
	var recorder handler.ResultRecorder
	if cfg.Database.Enabled {
		db, err = connectDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		resultRepo = repository.NewResultRepository(db)
		recorder = resultRepo
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
	}

	// 初始化服务
	idNode, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	deckService := deck.NewService(nil)
	engine := game.NewEngine(deckService, cfg.Game.NearEndThreshold)
	roomStore := store.NewRedisStore(redisClient)
	registry := room.NewRegistry(roomStore, engine, deckService, room.Options{
		DeckSize: cfg.Game.DeckSize,
		HandSize: cfg.Game.HandSize,
	})
	connMgr := connection.NewManager()
	msgHandler := handler.NewHandler(registry, connMgr, publisher, recorder)

	// 启动健康检查 HTTP 服务
	var natsConn *nats.Conn
	if natsClient != nil {
		natsConn = natsClient.Conn()
	}
	healthChecker := health.NewChecker(redisClient, natsConn, db)
	var statsSource health.ResultStats
	if resultRepo != nil {
		statsSource = resultRepo
	}
	go startHealthServer(cfg.Server.HealthAddr, healthChecker, health.NewStatsHandler(statsSource), logger)

	// 启动 WebSocket 服务
	wsServer := server.NewWebSocketServer(cfg.Server.WSAddr, connMgr, msgHandler, idNode)
	go func() {
		if err := wsServer.Start(ctx); err != nil {
			logger.Error("WebSocket server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 启动 WebTransport 服务（可选）
	var wtServer *server.WebTransportServer
	if cfg.Server.WTAddr != "" {
		wtServer = server.NewWebTransportServer(
			cfg.Server.WTAddr,
			cfg.Server.CertFile,
			cfg.Server.KeyFile,
			connMgr,
			msgHandler,
			idNode,
		)
		go func() {
			if err := wtServer.Start(ctx); err != nil {
				logger.Error("WebTransport server failed", "error", err)
			}
		}()
	}

	logger.Info("Game server started",
		"name", cfg.App.Name,
		"wsAddr", cfg.Server.WSAddr,
		"wtAddr", cfg.Server.WTAddr)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	wsServer.Shutdown(shutdownCtx)
	if wtServer != nil {
		wtServer.Shutdown()
	}

	logger.Info("Game server stopped")
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(addr string, healthChecker *health.Checker, statsHandler *health.StatsHandler, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.Handle("/stats", statsHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	logger.Info("Health check server started", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Health check server failed", "error", err)
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
