package troopstock

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend using Redis string keys.
//
// SCAN returns keys in no particular order, so List collects and sorts them
// before returning to honor the ordered List contract. PutIfMatch uses
// WATCH/MULTI for a real compare-and-set, unlike the best-effort S3 variant.
type RedisBackend struct {
	client     *redis.Client
	ownsClient bool // If true, Close() will close the Redis client
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// NewRedisBackendWithOwnedClient creates a Redis backend that owns the client.
// The client will be closed when Close() is called.
func NewRedisBackendWithOwnedClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, ownsClient: true}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *RedisBackend) Put(ctx context.Context, key string, data []byte) error {
	return b.client.Set(ctx, key, data, 0).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	removed, err := b.client.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	data, err := b.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return data, contentETag(data), nil
}

func (b *RedisBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	if expectedETag == "" {
		// Empty ETag means create: an existing key is a conflict
		set, err := b.client.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			return "", err
		}
		if !set {
			return "", WithContext(ErrConflict, map[string]interface{}{
				"key":    key,
				"reason": "key already exists",
			})
		}
		return contentETag(data), nil
	}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		currentETag := contentETag(current)
		if currentETag != expectedETag {
			return WithContext(ErrConflict, map[string]interface{}{
				"expected": expectedETag,
				"actual":   currentETag,
			})
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	err := b.client.Watch(ctx, txn, key)
	if err == redis.TxFailedErr {
		return "", WithContext(ErrConflict, map[string]interface{}{
			"key":    key,
			"reason": "key modified during compare-and-set",
		})
	}
	if err != nil {
		return "", err
	}

	return contentETag(data), nil
}

func (b *RedisBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64

	pattern := prefix + "*"
	for {
		var batch []string
		var err error
		batch, cursor, err = b.client.Scan(ctx, cursor, pattern, int64(DefaultListPaginatedSize)).Result()
		if err != nil {
			return nil, err
		}

		for _, key := range batch {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}

		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (b *RedisBackend) ListPaginated(ctx context.Context, prefix string, handler func(keys []string) error) error {
	// SCAN pages arrive unordered, so collect first to preserve key order.
	keys, err := b.List(ctx, prefix)
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += DefaultListPaginatedSize {
		end := start + DefaultListPaginatedSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := handler(keys[start:end]); err != nil {
			return err
		}
	}

	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	if b.ownsClient && b.client != nil {
		return b.client.Close()
	}
	return nil
}

// contentETag derives an ETag from the stored bytes, matching the filesystem
// backend's MD5 convention.
func contentETag(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
