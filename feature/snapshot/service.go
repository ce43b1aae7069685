package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fleet-manager/core/reconcile"
	"fleet-manager/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrStorageDisabled is returned by archive operations when no object
	// storage client is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrArchiveNotFound is returned when a snapshot object does not exist.
	ErrArchiveNotFound = errors.New("snapshot archive not found")
)

// ArchiveInfo describes a snapshot stored in object storage.
type ArchiveInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified,omitempty"`
	Records      int       `json:"records,omitempty"`
}

// Service restores and exports snapshots.
type Service struct {
	db     *gorm.DB
	engine *reconcile.Engine
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService creates a snapshot service. client may be nil, which disables
// archive operations.
func NewService(db *gorm.DB, client storage.Client, cfg storage.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		engine: reconcile.NewEngine(db, logger, Collections()...),
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.SnapshotPrefix, "/"),
		logger: logger,
		now:    time.Now,
	}
}

// Restore parses a snapshot document from r and merges it into the store.
func (s *Service) Restore(ctx context.Context, r io.Reader, format Format) (*reconcile.Summary, error) {
	doc, err := ParseDocument(r, format)
	if err != nil {
		return nil, err
	}
	return s.RestoreDocument(ctx, doc)
}

// RestoreDocument merges an already parsed document into the store.
func (s *Service) RestoreDocument(ctx context.Context, doc reconcile.Document) (*reconcile.Summary, error) {
	return s.engine.Restore(ctx, doc)
}

// Export reads every table ordered by identifier. Concurrent calls share one
// read, which runs detached from the first caller's cancellation.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("export", func() (any, error) {
		return s.export(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Export shared with a concurrent caller")
	}
	return v.(*Snapshot), nil
}

func (s *Service) export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&snap.Config).Error; err != nil {
			return err
		}
		for _, dest := range []any{
			&snap.EquipmentTypes,
			&snap.Regions,
			&snap.Areas,
			&snap.Assets,
			&snap.Positions,
			&snap.ChecklistQuestions,
			&snap.ChecklistRuns,
			&snap.ChecklistAnswers,
		} {
			if err := tx.Order("id").Find(dest).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}
	return snap, nil
}

// WriteJSON exports the store as an indented JSON document.
func (s *Service) WriteJSON(ctx context.Context, w io.Writer) (*Snapshot, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return snap, nil
}

// Archive exports the store to object storage under
// <prefix>/<UTC timestamp>-<uuid>.json.
func (s *Service) Archive(ctx context.Context) (*ArchiveInfo, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}

	var buf bytes.Buffer
	snap, err := s.WriteJSON(ctx, &buf)
	if err != nil {
		return nil, err
	}

	key := s.objectKey(fmt.Sprintf("%s-%s.json", s.now().UTC().Format("20060102T150405Z"), uuid.NewString()))
	size := int64(buf.Len())
	_, err = s.client.PutObject(ctx, s.bucket, key, &buf, size, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	s.logger.Info("Snapshot archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int64("size", size),
		zap.Int("records", snap.Records()),
	)
	return &ArchiveInfo{Key: key, Size: size, LastModified: s.now().UTC(), Records: snap.Records()}, nil
}

// ListArchives lists stored snapshots, oldest first.
func (s *Service) ListArchives(ctx context.Context) ([]ArchiveInfo, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}

	var archives []ArchiveInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		archives = append(archives, ArchiveInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return archives, nil
}

// RestoreObject restores a snapshot stored in object storage. A bare name is
// looked up under the snapshot prefix. The format follows the extension.
func (s *Service) RestoreObject(ctx context.Context, name string) (*reconcile.Summary, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty object name", ErrArchiveNotFound)
	}
	key := name
	if !strings.Contains(name, "/") {
		key = s.objectKey(name)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.objectError(key, err)
	}
	defer obj.Close()

	// Read fully so transport failures are not reported as malformed input.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.objectError(key, err)
	}

	s.logger.Info("Restoring snapshot archive", zap.String("key", key), zap.Int("size", len(data)))
	return s.Restore(ctx, bytes.NewReader(data), FormatFromPath(key))
}

func (s *Service) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Service) objectError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
	}
	return fmt.Errorf("failed to read snapshot %s: %w", key, err)
}
