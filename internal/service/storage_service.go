package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"educorp_backend/internal/config"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider is a blob store addressed by object key.
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
	// KeyFromURL reverses GetURL. ok is false for URLs this provider did not hand out.
	KeyFromURL(url string) (key string, ok bool)
}

type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(p.Config.LocalPath, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *LocalStorageProvider) GetURL(key string) string {
	return strings.TrimRight(p.Config.PublicBaseURL, "/") + "/uploads/" + key
}

func (p *LocalStorageProvider) KeyFromURL(url string) (string, bool) {
	return trimURLPrefix(url, strings.TrimRight(p.Config.PublicBaseURL, "/")+"/uploads/")
}

type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(key string) string {
	return p.baseURL() + key
}

func (p *MinioStorageProvider) KeyFromURL(url string) (string, bool) {
	return trimURLPrefix(url, p.baseURL())
}

func (p *MinioStorageProvider) baseURL() string {
	if p.Config.PublicBaseURL != "" {
		return strings.TrimRight(p.Config.PublicBaseURL, "/") + "/" + p.Config.MinioBucket + "/"
	}
	return "/" + p.Config.MinioBucket + "/"
}

type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key)
}

func (p *OSSStorageProvider) GetURL(key string) string {
	return p.baseURL() + key
}

func (p *OSSStorageProvider) KeyFromURL(url string) (string, bool) {
	return trimURLPrefix(url, p.baseURL())
}

func (p *OSSStorageProvider) baseURL() string {
	return fmt.Sprintf("https://%s.%s/", p.Config.OSSBucket, p.Config.OSSEndpoint)
}

func trimURLPrefix(url, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent int)

// StorageService is the blob store used for course media.
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("MinIO storage unavailable, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("OSS storage unavailable, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// Upload streams reader to key and returns its public URL. onProgress, if set, sees 0 before
// the first byte and 100 once the provider has accepted the object.
func (s *StorageService) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error) {
	pr := &progressReader{r: reader, total: size, fn: onProgress}
	pr.report(0)
	url, err := s.Provider.Upload(ctx, key, pr, size, contentType)
	if err != nil {
		return "", err
	}
	pr.report(100)
	return url, nil
}

// Delete removes the object behind url. URLs from another store are ignored.
func (s *StorageService) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	key, ok := s.Provider.KeyFromURL(url)
	if !ok {
		logger.Log.Warn("Skipping delete of foreign storage url", zap.String("url", url))
		return nil
	}
	return s.Provider.Delete(ctx, key)
}

func (s *StorageService) GetURL(key string) string {
	return s.Provider.GetURL(key)
}

type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc

	mu   sync.Mutex
	last int
	sent bool
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.report(pct)
	}
	return n, err
}

// report only forwards increases.
func (p *progressReader) report(pct int) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	if p.sent && pct <= p.last {
		p.mu.Unlock()
		return
	}
	p.last, p.sent = pct, true
	p.mu.Unlock()
	p.fn(pct)
}
