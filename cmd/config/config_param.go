package config

import "time"

type Mode string

const (
	DebugMode      Mode = "debug"
	ProductionMode Mode = "production"
)

type UpstreamConfig struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
	ForwardCookies bool
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type CacheConfig struct {
	// Backend "memory" または "redis"
	Backend         string
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RedisKeys struct {
	CacheKeyPrefix   string
	PrefetchQueueKey string
	ScanCount        int
}

type WorkerConfig struct {
	Workers           int
	QueueWatchTimeout time.Duration
	QueueSize         int
	PrefetchEnabled   bool
}

type ServerConfig struct {
	Port       int
	Mode       Mode
	ViewerPath string
}
