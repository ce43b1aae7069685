package checks

import (
	"context"
	"fmt"
	"strings"

	"fleet-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// StorageReport describes the snapshot archive bucket.
type StorageReport struct {
	Bucket   string `json:"bucket"`
	Exists   bool   `json:"exists"`
	Prefix   string `json:"prefix"`
	Archives int    `json:"archives"`
	Latest   string `json:"latest,omitempty"`
	Status   string `json:"status"` // "ok", "missing"
}

// CheckStorage checks the archive bucket and counts the snapshots under
// prefix.
func CheckStorage(ctx context.Context, client storage.Client, bucket, prefix string) (*StorageReport, error) {
	prefix = strings.Trim(prefix, "/")
	report := &StorageReport{Bucket: bucket, Prefix: prefix, Status: "ok"}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		report.Status = "missing"
		return report, nil
	}
	report.Exists = true

	opts := minio.ListObjectsOptions{Recursive: true}
	if prefix != "" {
		opts.Prefix = prefix + "/"
	}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", bucket, obj.Err)
		}
		report.Archives++
		// Archive names start with a UTC timestamp.
		if obj.Key > report.Latest {
			report.Latest = obj.Key
		}
	}

	return report, nil
}

// FixStorage creates the archive bucket.
func FixStorage(ctx context.Context, client storage.Client, bucket, region string, logger *zap.Logger) error {
	if err := storage.EnsureBucket(ctx, client, bucket, region); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Ensured archive bucket", zap.String("bucket", bucket))
	return nil
}
