// TroopStock - scout troop inventory and loan store
//
// Operational CLI for the data layer: inspect the stats snapshot and run
// the index/stats rebuild against any supported backend.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/troophq/troopstock"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "stats":
			runStats(os.Args[2:])
			return
		case "rebuild":
			runRebuild(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	printHelp()
	os.Exit(1)
}

func printHelp() {
	fmt.Println(`TroopStock - scout troop inventory and loan store

Usage:
  troopstock stats [flags]     Print the aggregate stats snapshot
  troopstock rebuild [flags]   Rebuild indexes and stats from primary records

Backend flags (shared):
  --backend string   Backend to use: filesystem, redis, s3, minio (default "filesystem")
  --data string      Data directory for the filesystem backend (default "./data")
  --bucket string    Bucket name for the s3 and minio backends
  --endpoint string  Endpoint for the minio backend (default "localhost:9000")

The redis backend reads REDIS_ADDR / REDIS_PASSWORD / REDIS_DB from the
environment; the s3 backend uses the standard AWS credential chain; the
minio backend reads MINIO_ACCESS_KEY / MINIO_SECRET_KEY.

Set TROOPSTOCK_ENCRYPTION_KEY to a 64-char hex string to encrypt all
values at rest with AES-256-GCM.`)
}

type backendFlags struct {
	backend  string
	dataDir  string
	bucket   string
	endpoint string
}

func registerBackendFlags(fs *flag.FlagSet) *backendFlags {
	bf := &backendFlags{}
	fs.StringVar(&bf.backend, "backend", "filesystem", "Backend to use: filesystem, redis, s3, minio")
	fs.StringVar(&bf.dataDir, "data", "./data", "Data directory for the filesystem backend")
	fs.StringVar(&bf.bucket, "bucket", "", "Bucket name for the s3 and minio backends")
	fs.StringVar(&bf.endpoint, "endpoint", "localhost:9000", "Endpoint for the minio backend")
	return bf
}

func openRepository(ctx context.Context, bf *backendFlags) (*troopstock.Repository, error) {
	var (
		backend troopstock.Backend
		remote  bool
	)

	switch bf.backend {
	case "filesystem":
		if err := os.MkdirAll(bf.dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		backend = troopstock.NewFilesystemBackend(bf.dataDir)

	case "redis":
		backend = troopstock.NewRedisBackendWithOwnedClient(redis.NewClient(troopstock.RedisOptions()))
		remote = true

	case "s3":
		if bf.bucket == "" {
			return nil, fmt.Errorf("--bucket is required for the s3 backend")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		backend = troopstock.NewS3Backend(s3.NewFromConfig(cfg), bf.bucket)
		remote = true

	case "minio":
		if bf.bucket == "" {
			return nil, fmt.Errorf("--bucket is required for the minio backend")
		}
		var err error
		backend, err = troopstock.NewMinIOBackend(troopstock.MinIOConfig{
			Endpoint:        bf.endpoint,
			AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:          bf.bucket,
		})
		if err != nil {
			return nil, err
		}
		remote = true

	default:
		return nil, fmt.Errorf("unknown backend %q", bf.backend)
	}

	if keyHex := os.Getenv("TROOPSTOCK_ENCRYPTION_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("TROOPSTOCK_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		backend, err = troopstock.NewEncryptionBackend(backend, key)
		if err != nil {
			return nil, err
		}
	}

	logger, err := troopstock.NewProductionZapLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Network backends get a circuit breaker so a dead dependency fails
	// fast instead of hanging every operation.
	if remote {
		breaker := troopstock.NewCircuitBreaker(5, 30*time.Second).
			WithStateChangeCallback(func(from, to string) {
				logger.Warn("backend circuit breaker state change", "from", from, "to", to)
			})
		backend = troopstock.NewCircuitBreakerBackend(backend, breaker)
	}

	store := troopstock.NewStoreWithLogger(backend, logger)
	return troopstock.NewRepositoryWithObservability(store, logger, &troopstock.NoOpMetrics{}), nil
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	bf := registerBackendFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	repo, err := openRepository(ctx, bf)
	if err != nil {
		log.Fatalf("Failed to open repository: %v", err)
	}
	defer repo.Close()

	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render stats: %v", err)
	}
	fmt.Println(string(out))
}

func runRebuild(args []string) {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	bf := registerBackendFlags(fs)
	fs.Parse(args)

	ctx := context.Background()
	repo, err := openRepository(ctx, bf)
	if err != nil {
		log.Fatalf("Failed to open repository: %v", err)
	}
	defer repo.Close()

	report, err := repo.RebuildIndexes(ctx)
	if err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	fmt.Printf("Items scanned:         %d\n", report.ItemsScanned)
	fmt.Printf("Checkouts scanned:     %d\n", report.CheckOutsScanned)
	fmt.Printf("Index entries built:   %d\n", report.IndexEntriesBuilt)
	fmt.Printf("Index entries removed: %d\n", report.IndexEntriesRemoved)
	for _, msg := range report.Errors {
		fmt.Printf("Error: %s\n", msg)
	}
	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
