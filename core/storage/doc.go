// Package storage provides the object storage used to archive snapshots.
//
// It wraps the MinIO Go client behind a narrow Client interface so the
// snapshot feature can be tested against core/storage/mocks. Both AWS S3 and
// self-hosted MinIO are supported.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
