package attach

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"turnover/api/internal/util"
)

// MinioStore keeps attachments as objects named <key>/<ms>_<filename> in a
// single bucket, the object-store equivalent of the per-key directory
// layout.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
	now      func() time.Time
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
		now:      time.Now,
	}, nil
}

func (s *MinioStore) objectURL(objectName string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectName)
}

func (s *MinioStore) Save(ctx context.Context, key, filename string, r io.Reader, size int64) (File, error) {
	now := s.now()
	objectName := util.SafeFileName(key) + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + util.SafeFileName(filename)

	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{})
	if err != nil {
		return File{}, fmt.Errorf("put attachment %s: %w", objectName, err)
	}
	return File{
		Name:    objectName[strings.LastIndex(objectName, "/")+1:],
		URL:     s.objectURL(objectName),
		Size:    info.Size,
		SavedAt: now,
	}, nil
}

func (s *MinioStore) List(ctx context.Context, key string) ([]File, error) {
	prefix := util.SafeFileName(key) + "/"
	files := make([]File, 0)
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list attachments %s: %w", key, object.Err)
		}
		files = append(files, File{
			Name:    strings.TrimPrefix(object.Key, prefix),
			URL:     s.objectURL(object.Key),
			Size:    object.Size,
			SavedAt: object.LastModified,
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].SavedAt.After(files[j].SavedAt)
	})
	return files, nil
}
