package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Status 健康状态
// NATS 与数据库是可选依赖，未启用时报告 disabled
type Status struct {
	Redis    string `json:"redis"`
	NATS     string `json:"nats"`
	Database string `json:"database"`
}

// Checker 健康检查器
type Checker struct {
	redisClient *redis.Client
	nc          *nats.Conn
	db          *pgxpool.Pool
}

// NewChecker 创建健康检查器；nc 和 db 可以为 nil
func NewChecker(redisClient *redis.Client, nc *nats.Conn, db *pgxpool.Pool) *Checker {
	return &Checker{
		redisClient: redisClient,
		nc:          nc,
		db:          db,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	// 检查 Redis
	redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
	defer redisCancel()

	if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
		status.Redis = "connected"
	} else {
		status.Redis = "disconnected"
	}

	// 检查 NATS
	if h.nc == nil {
		status.NATS = "disabled"
	} else if h.nc.IsConnected() {
		status.NATS = "connected"
	} else {
		status.NATS = "disconnected"
	}

	// 检查 PostgreSQL
	if h.db == nil {
		status.Database = "disabled"
	} else {
		dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
		defer dbCancel()

		if err := h.db.Ping(dbCtx); err == nil {
			status.Database = "connected"
		} else {
			status.Database = "disconnected"
		}
	}

	return status
}

// IsHealthy 检查是否健康（可选依赖 disabled 不算不健康）
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return healthy(h.Check(ctx))
}

func healthy(status *Status) bool {
	return status.Redis == "connected" &&
		status.NATS != "disconnected" &&
		status.Database != "disconnected"
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	// 响应头必须在 WriteHeader 之前设置
	w.Header().Set("Content-Type", "application/json")
	if healthy(status) {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
