package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	NodeID   int64  `mapstructure:"node_id"`
}

type ServerConfig struct {
	WSAddr     string `mapstructure:"ws_addr"`      // WebSocket 监听地址
	WTAddr     string `mapstructure:"wt_addr"`      // WebTransport 监听地址（空表示关闭）
	HealthAddr string `mapstructure:"health_addr"`  // 健康检查 HTTP 地址
	CertFile   string `mapstructure:"cert_file"`    // TLS 证书（WebTransport 用）
	KeyFile    string `mapstructure:"key_file"`     // TLS 私钥
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// NATSConfig URL 为空表示不启用事件发布
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// DatabaseConfig Enabled 为 false 时不落终局结果
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GameConfig 对局规则参数
type GameConfig struct {
	DeckSize         int `mapstructure:"deck_size"`          // 整副牌张数（牌值 2..N+1）
	HandSize         int `mapstructure:"hand_size"`          // 开局手牌数
	NearEndThreshold int `mapstructure:"near_end_threshold"` // 进入终局前阶段的剩余牌数阈值
}

// Load 从指定路径加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("game.deck_size", 98)
	viper.SetDefault("game.hand_size", 6)
	viper.SetDefault("game.near_end_threshold", 9)
	viper.SetDefault("server.ws_addr", ":3030")
	viper.SetDefault("server.health_addr", ":8081")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
