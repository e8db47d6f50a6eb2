package troopstock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store provides high-level JSON operations on top of a Backend.
// Domain records never touch the backend directly; every read and write of
// the repository goes through the Store (or a transaction built on it).
type Store struct {
	backend Backend
	logger  Logger
	metrics Metrics
}

// NewStore creates a new store with no-op logger and metrics
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  &NoOpLogger{},
		metrics: &NoOpMetrics{},
	}
}

// NewStoreWithLogger creates a new store with a custom logger
func NewStoreWithLogger(backend Backend, logger Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: &NoOpMetrics{},
	}
}

// NewStoreWithObservability creates a new store with logging and metrics
func NewStoreWithObservability(backend Backend, logger Logger, metrics Metrics) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: metrics,
	}
}

// SetLogger updates the logger for this store
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetMetrics updates the metrics collector for this store
func (s *Store) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// GetJSON fetches and unmarshals a JSON object
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) error {
	start := time.Now()
	data, err := s.backend.Get(ctx, key)
	s.metrics.Timing(MetricGetDuration, time.Since(start))

	if err != nil {
		s.metrics.Increment(MetricGetError)
		return err
	}

	s.metrics.Increment(MetricGetSuccess)
	return json.Unmarshal(data, dest)
}

// PutJSON marshals and stores a JSON object
func (s *Store) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	start := time.Now()
	err = s.backend.Put(ctx, key, data)
	s.metrics.Timing(MetricPutDuration, time.Since(start))

	if err != nil {
		s.metrics.Increment(MetricPutError)
		return err
	}

	s.metrics.Increment(MetricPutSuccess)
	return nil
}

// PutJSONWithETag stores JSON with optimistic locking
func (s *Store) PutJSONWithETag(ctx context.Context, key string, value interface{}, expectedETag string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}
	return s.backend.PutIfMatch(ctx, key, data, expectedETag)
}

// GetJSONWithETag fetches JSON and returns its ETag
func (s *Store) GetJSONWithETag(ctx context.Context, key string, dest interface{}) (string, error) {
	data, etag, err := s.backend.GetWithETag(ctx, key)
	if err != nil {
		return "", err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return "", err
	}
	return etag, nil
}

// Delete removes an object
func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.backend.Delete(ctx, key)
	s.metrics.Timing(MetricDeleteDuration, time.Since(start))

	if err != nil {
		s.metrics.Increment(MetricDeleteError)
		return err
	}

	s.metrics.Increment(MetricDeleteSuccess)
	return nil
}

// Exists checks if a key exists
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.backend.Exists(ctx, key)
}

// List returns all keys with the given prefix, in key order
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.List(ctx, prefix)
}

// ListPaginated processes keys in batches
func (s *Store) ListPaginated(ctx context.Context, prefix string, handler func(keys []string) error) error {
	return s.backend.ListPaginated(ctx, prefix, handler)
}

// MarshalObject marshals an object to JSON (utility function)
// Renamed from MarshalJSON to avoid conflict with json.Marshaler interface
func (s *Store) MarshalObject(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

// Backend returns the underlying backend (for advanced use cases like rebuild)
func (s *Store) Backend() Backend {
	return s.backend
}

// Ping checks backend health
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases resources held by the store and backend
func (s *Store) Close() error {
	return s.backend.Close()
}
