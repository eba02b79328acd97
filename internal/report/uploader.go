// internal/report/uploader.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/andresuchdata/demandcast/internal/config"
)

// Uploader pushes run artifacts to an S3-compatible bucket so reports survive
// the container that produced them.
type Uploader struct {
	client *minio.Client
	bucket string
	log    zerolog.Logger
}

func NewUploader(cfg config.StorageConfig, log zerolog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.Bucket, log: log}, nil
}

// UploadFile stores a local artifact under prefix/filename in the bucket.
func (u *Uploader) UploadFile(ctx context.Context, prefix, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", localPath, err)
	}

	key := path.Join(prefix, path.Base(localPath))
	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(localPath)})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	u.log.Info().
		Str("bucket", u.bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("artifact uploaded")
	return nil
}

func contentTypeFor(localPath string) string {
	switch path.Ext(localPath) {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
