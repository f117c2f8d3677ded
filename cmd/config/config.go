package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Upstream    UpstreamConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	RedisClient Redis
	RedisKeys   RedisKeys
	Worker      WorkerConfig
	Server      ServerConfig
}

func LoadConfig() Config {
	// デフォルト設定
	defaultConfig := Config{
		Upstream: UpstreamConfig{
			BaseURL: "https://gamep.cloudcrash.shop",
			Timeout: 10 * time.Second,
			DefaultHeaders: map[string]string{
				"User-Agent": "panel-proxy/1.0",
			},
			ForwardCookies: false,
		},
		RateLimit: RateLimitConfig{
			Limit:  60,
			Window: 60 * time.Second,
		},
		Cache: CacheConfig{
			Backend:         "memory", // "memory" or "redis"
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: 1 * time.Minute,
		},
		RedisClient: Redis{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
		},
		RedisKeys: RedisKeys{
			CacheKeyPrefix:   "proxy:cache:",
			PrefetchQueueKey: "proxy:prefetch:requests",
			// ScanCount は省略可能（デフォルト値100が使用される）
		},
		Worker: WorkerConfig{
			Workers:           5,
			QueueWatchTimeout: 10 * time.Second,
			QueueSize:         256,
			PrefetchEnabled:   true,
		},
		Server: ServerConfig{
			Port:       8080,
			Mode:       ProductionMode,
			ViewerPath: "pages/viewer.html",
		},
	}

	// YAMLファイルから設定を読み込む（存在する場合）
	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		var yc yamlConfig
		if uerr := yaml.Unmarshal(data, &yc); uerr != nil {
			// YAMLのパースエラーは無視してデフォルト値を使用
			fmt.Printf("Warning: Failed to parse config file %s: %v, using defaults\n", configPath, uerr)
		} else {
			// YAMLから読み込んだ設定でデフォルト値をマージ
			return mergeConfig(defaultConfig, yc.toConfig())
		}
	}

	return defaultConfig
}

// getConfigPath 設定ファイルのパスを取得
// 環境変数 CONFIG_PATH が設定されている場合はそれを使用
// それ以外は config.yaml を探す
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

// yamlConfig YAMLファイル用の一時的な構造体（time.Durationを文字列として読み込む）
type yamlConfig struct {
	Upstream struct {
		BaseURL        string            `yaml:"base_url"`
		Timeout        string            `yaml:"timeout"`
		DefaultHeaders map[string]string `yaml:"default_headers"`
		ForwardCookies bool              `yaml:"forward_cookies"`
	} `yaml:"upstream"`
	RateLimit struct {
		Limit  int    `yaml:"limit"`
		Window string `yaml:"window"`
	} `yaml:"rate_limit"`
	Cache struct {
		Backend         string `yaml:"backend"`
		DefaultTTL      string `yaml:"default_ttl"`
		CleanupInterval string `yaml:"cleanup_interval"`
	} `yaml:"cache"`
	RedisClient struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis_client"`
	RedisKeys struct {
		CacheKeyPrefix   string `yaml:"cache_key_prefix"`
		PrefetchQueueKey string `yaml:"prefetch_queue_key"`
		ScanCount        int    `yaml:"scan_count"`
	} `yaml:"redis_keys"`
	Worker struct {
		Workers           int    `yaml:"workers"`
		QueueWatchTimeout string `yaml:"queue_watch_timeout"`
		QueueSize         int    `yaml:"queue_size"`
		PrefetchEnabled   *bool  `yaml:"prefetch_enabled"`
	} `yaml:"worker"`
	Server struct {
		Port       int    `yaml:"port"`
		Mode       string `yaml:"mode"`
		ViewerPath string `yaml:"viewer_path"`
	} `yaml:"server"`
}

// toConfig yamlConfigをConfigに変換（time.Durationの文字列をパース）
func (yc yamlConfig) toConfig() Config {
	parseDuration := func(s string) time.Duration {
		if s == "" {
			return 0
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0
		}
		return d
	}

	var mode Mode
	switch yc.Server.Mode {
	case "debug":
		mode = DebugMode
	case "production":
		mode = ProductionMode
	}

	prefetchEnabled := true
	if yc.Worker.PrefetchEnabled != nil {
		prefetchEnabled = *yc.Worker.PrefetchEnabled
	}

	return Config{
		Upstream: UpstreamConfig{
			BaseURL:        yc.Upstream.BaseURL,
			Timeout:        parseDuration(yc.Upstream.Timeout),
			DefaultHeaders: yc.Upstream.DefaultHeaders,
			ForwardCookies: yc.Upstream.ForwardCookies,
		},
		RateLimit: RateLimitConfig{
			Limit:  yc.RateLimit.Limit,
			Window: parseDuration(yc.RateLimit.Window),
		},
		Cache: CacheConfig{
			Backend:         yc.Cache.Backend,
			DefaultTTL:      parseDuration(yc.Cache.DefaultTTL),
			CleanupInterval: parseDuration(yc.Cache.CleanupInterval),
		},
		RedisClient: Redis{
			Host:     yc.RedisClient.Host,
			Port:     yc.RedisClient.Port,
			Password: yc.RedisClient.Password,
			DB:       yc.RedisClient.DB,
		},
		RedisKeys: RedisKeys{
			CacheKeyPrefix:   yc.RedisKeys.CacheKeyPrefix,
			PrefetchQueueKey: yc.RedisKeys.PrefetchQueueKey,
			ScanCount:        yc.RedisKeys.ScanCount,
		},
		Worker: WorkerConfig{
			Workers:           yc.Worker.Workers,
			QueueWatchTimeout: parseDuration(yc.Worker.QueueWatchTimeout),
			QueueSize:         yc.Worker.QueueSize,
			PrefetchEnabled:   prefetchEnabled,
		},
		Server: ServerConfig{
			Port:       yc.Server.Port,
			Mode:       mode,
			ViewerPath: yc.Server.ViewerPath,
		},
	}
}

// mergeConfig YAMLから読み込んだ設定でデフォルト設定をマージ
// YAMLで設定されていない項目はデフォルト値を使用
func mergeConfig(defaultConfig, yamlConfig Config) Config {
	merged := defaultConfig

	// Upstream
	if yamlConfig.Upstream.BaseURL != "" {
		merged.Upstream.BaseURL = yamlConfig.Upstream.BaseURL
	}
	if yamlConfig.Upstream.Timeout != 0 {
		merged.Upstream.Timeout = yamlConfig.Upstream.Timeout
	}
	if yamlConfig.Upstream.DefaultHeaders != nil {
		merged.Upstream.DefaultHeaders = yamlConfig.Upstream.DefaultHeaders
	}
	merged.Upstream.ForwardCookies = yamlConfig.Upstream.ForwardCookies

	// RateLimit
	if yamlConfig.RateLimit.Limit != 0 {
		merged.RateLimit.Limit = yamlConfig.RateLimit.Limit
	}
	if yamlConfig.RateLimit.Window != 0 {
		merged.RateLimit.Window = yamlConfig.RateLimit.Window
	}

	// Cache
	if yamlConfig.Cache.Backend != "" {
		merged.Cache.Backend = yamlConfig.Cache.Backend
	}
	if yamlConfig.Cache.DefaultTTL != 0 {
		merged.Cache.DefaultTTL = yamlConfig.Cache.DefaultTTL
	}
	if yamlConfig.Cache.CleanupInterval != 0 {
		merged.Cache.CleanupInterval = yamlConfig.Cache.CleanupInterval
	}

	// RedisClient
	if yamlConfig.RedisClient.Host != "" {
		merged.RedisClient.Host = yamlConfig.RedisClient.Host
	}
	if yamlConfig.RedisClient.Port != 0 {
		merged.RedisClient.Port = yamlConfig.RedisClient.Port
	}
	if yamlConfig.RedisClient.Password != "" {
		merged.RedisClient.Password = yamlConfig.RedisClient.Password
	}
	if yamlConfig.RedisClient.DB != 0 || yamlConfig.RedisClient.Host != "" {
		merged.RedisClient.DB = yamlConfig.RedisClient.DB
	}

	// RedisKeys
	if yamlConfig.RedisKeys.CacheKeyPrefix != "" {
		merged.RedisKeys.CacheKeyPrefix = yamlConfig.RedisKeys.CacheKeyPrefix
	}
	if yamlConfig.RedisKeys.PrefetchQueueKey != "" {
		merged.RedisKeys.PrefetchQueueKey = yamlConfig.RedisKeys.PrefetchQueueKey
	}
	if yamlConfig.RedisKeys.ScanCount != 0 {
		merged.RedisKeys.ScanCount = yamlConfig.RedisKeys.ScanCount
	}

	// Worker
	if yamlConfig.Worker.Workers != 0 {
		merged.Worker.Workers = yamlConfig.Worker.Workers
	}
	if yamlConfig.Worker.QueueWatchTimeout != 0 {
		merged.Worker.QueueWatchTimeout = yamlConfig.Worker.QueueWatchTimeout
	}
	if yamlConfig.Worker.QueueSize != 0 {
		merged.Worker.QueueSize = yamlConfig.Worker.QueueSize
	}
	merged.Worker.PrefetchEnabled = yamlConfig.Worker.PrefetchEnabled

	// Server
	if yamlConfig.Server.Port != 0 {
		merged.Server.Port = yamlConfig.Server.Port
	}
	if yamlConfig.Server.Mode != "" {
		merged.Server.Mode = yamlConfig.Server.Mode
	}
	if yamlConfig.Server.ViewerPath != "" {
		merged.Server.ViewerPath = yamlConfig.Server.ViewerPath
	}

	return merged
}
