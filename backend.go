package troopstock

import "context"

// Backend defines the interface for different storage implementations.
// This allows troopstock to work with the local filesystem, Redis, S3, or any
// S3-compatible storage.
//
// List and ListPaginated MUST return keys in lexicographic order. The expiry
// index relies on that ordering to yield food items in chronological order
// without a secondary sort.
type Backend interface {
	// Point operations
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Conditional operations (for optimistic locking)
	// Returns ETag after successful put. An empty expectedETag is a
	// conditional create: the write fails with ErrConflict if the key
	// already exists.
	PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error)
	GetWithETag(ctx context.Context, key string) (data []byte, etag string, err error)

	// Prefix range scans
	List(ctx context.Context, prefix string) ([]string, error)
	ListPaginated(ctx context.Context, prefix string, handler func(keys []string) error) error

	// Health check
	Ping(ctx context.Context) error

	// Resource cleanup
	Close() error
}

// BackendConfig holds configuration for any backend
type BackendConfig struct {
	Type       string            // "filesystem", "redis", or "s3"
	Bucket     string            // S3 bucket or base directory
	Region     string            // AWS region (S3 only)
	Endpoint   string            // Custom endpoint (S3-compatible services, Redis address)
	PathPrefix string            // Optional prefix for all keys
	Options    map[string]string // Backend-specific options
}

// Validate checks if the BackendConfig is valid
func (c BackendConfig) Validate() error {
	if c.Type == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"reason": "backend type is required",
		})
	}

	switch c.Type {
	case "s3":
		if c.Bucket == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Bucket",
				"reason": "S3 backend requires a bucket",
			})
		}
		if c.Region == "" && c.Endpoint == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Region/Endpoint",
				"reason": "S3 backend requires either Region or Endpoint",
			})
		}
	case "redis":
		// Endpoint defaults to localhost:6379 via RedisOptions
	case "filesystem":
		if c.Bucket == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Bucket",
				"reason": "filesystem backend requires a base directory",
			})
		}
	default:
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"value":  c.Type,
			"reason": "unknown backend type",
		})
	}

	return nil
}
