package plugins

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClientConfig struct {
	// PrefetchQueueKey プリフェッチキューのRedisキー
	PrefetchQueueKey string

	// CacheKeyPattern キャッシュキーのスキャンパターン（例: "proxy:cache:*"）
	CacheKeyPattern string

	// ScanCount SCANの1回あたりの取得件数（0の場合はデフォルト値100）
	ScanCount int
}

// RedisClient Redisをバックエンドに使うCacheClient実装
// TTLはRedisのネイティブ期限に任せる
type RedisClient struct {
	rclient *redis.Client
	config  RedisClientConfig
}

func NewRedisClient(rclient *redis.Client, config RedisClientConfig) *RedisClient {
	if config.ScanCount <= 0 {
		config.ScanCount = 100
	}
	return &RedisClient{
		rclient: rclient,
		config:  config,
	}
}

func (rc *RedisClient) GetCache(ctx context.Context, key string) ([]byte, error) {
	data, err := rc.rclient.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

func (rc *RedisClient) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return rc.rclient.Set(ctx, key, data, ttl).Err()
}

// DeleteExpiredCaches Redisは期限切れキーを自動削除するため何もしない
func (rc *RedisClient) DeleteExpiredCaches(ctx context.Context) error {
	return nil
}

// DeleteAllCaches パターンに一致するキャッシュキーをすべて削除する
// ページネーションを使用してキーをスキャンする
func (rc *RedisClient) DeleteAllCaches(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := rc.rclient.Scan(ctx, cursor, rc.config.CacheKeyPattern, int64(rc.config.ScanCount)).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := rc.rclient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (rc *RedisClient) PushPrefetchJob(ctx context.Context, job []byte) error {
	return rc.rclient.RPush(ctx, rc.config.PrefetchQueueKey, job).Err()
}

func (rc *RedisClient) BLPopPrefetchJob(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := rc.rclient.BLPop(ctx, timeout, rc.config.PrefetchQueueKey).Result()
	if err == redis.Nil {
		// タイムアウト
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	// BLPopは [キー, 値] の2要素を返す
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}
