// Command backfill recomputes content hashes for document versions that are
// missing one, by downloading their stored bytes and digesting them.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"fmt"
	"log"

	"signet/internal/config"
	"signet/internal/domain"
	"signet/internal/repository/postgres"
	s3storage "signet/internal/storage/s3"
)

const batchSize = 100

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	versionRepo := postgres.NewVersionRepo(db)
	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("initializing S3 client: %w", err)
	}

	ctx := context.Background()
	total := 0

	for {
		versions, err := versionRepo.ListMissingContentHash(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("querying versions without content hash: %w", err)
		}
		if len(versions) == 0 {
			break
		}

		for i := range versions {
			v := &versions[i]

			data, err := storage.Download(ctx, cfg.S3.Bucket, v.StorageKey)
			if err != nil {
				log.Printf("WARN: skipping version %s: download %s: %v", v.ID, v.StorageKey, err)
				continue
			}

			hash := domain.ContentDigest(data)
			if err := versionRepo.UpdateContentHash(ctx, v.ID, hash); err != nil {
				log.Printf("WARN: failed to update hash for version %s: %v", v.ID, err)
				continue
			}
			total++
		}

		if len(versions) < batchSize {
			break
		}
		if total > 0 && total%batchSize == 0 {
			log.Printf("Progress: %d versions hashed", total)
		}
	}

	log.Printf("Backfill complete: %d version content hashes recomputed", total)
	return nil
}
