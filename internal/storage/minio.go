// Package storage 保存作品集截图。对象只在私有 Bucket 中，浏览器通过限时签名链接下载。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"kidsfolio/internal/config"
)

// Client 的 writer 走集群内地址；signer 用公开地址签名，保证链接的 Host 与浏览器访问的一致。
type Client struct {
	writer *minio.Client
	signer *minio.Client
	bucket string
}

// NewClient 连接 MinIO 并确认 Bucket 存在，AutoCreateBucket 时自动创建。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	lookup, err := bucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}
	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	writer, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	public, err := url.Parse(cfg.PublicEndpoint)
	if err != nil || public.Host == "" {
		return nil, fmt.Errorf("invalid minio public endpoint %q", cfg.PublicEndpoint)
	}
	signer, err := minio.New(public.Host, &minio.Options{
		Creds:        creds,
		Secure:       public.Scheme == "https",
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio signer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ensureBucket(ctx, writer, cfg); err != nil {
		return nil, err
	}

	return &Client{writer: writer, signer: signer, bucket: cfg.Bucket}, nil
}

func bucketLookup(mode string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	default:
		return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", mode)
	}
}

func ensureBucket(ctx context.Context, c *minio.Client, cfg config.MinIOConfig) error {
	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if !cfg.AutoCreateBucket {
		return fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
	}
	if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
	}
	return nil
}

// PutPNG 写入一张截图。
func (c *Client) PutPNG(ctx context.Context, key string, data []byte) error {
	_, err := c.writer.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "image/png",
		CacheControl: "private, max-age=0",
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// DownloadURL 生成以附件形式下载的签名链接。
func (c *Client) DownloadURL(ctx context.Context, key string, ttl time.Duration, filename string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", ContentDisposition(filename))
	params.Set("response-content-type", "image/png")
	u, err := c.signer.PresignedGetObject(ctx, c.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}

// DeletePrefix 批量删除前缀下的对象（作品集删除时清理历史截图）。已不存在的对象不算错误。
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return errors.New("refusing to delete with empty prefix")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	objects := c.writer.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	failed := 0
	var firstErr error
	for result := range c.writer.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err == nil || IsNotFound(result.Err) {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = result.Err
		}
	}
	if failed == 0 {
		return nil
	}
	slog.Default().Error("delete snapshots under prefix failed",
		slog.String("prefix", prefix),
		slog.Int("failed_count", failed),
	)
	return fmt.Errorf("delete objects under %q: %d failed: %w", prefix, failed, firstErr)
}

// IsNotFound 判断错误是否表示对象或 Bucket 不存在。
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	switch resp.Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}

// ContentDisposition 生成附件下载头，文件名里的引号与换行被去掉。
func ContentDisposition(filename string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\r', '\n':
			return -1
		}
		return r
	}, filename)
	if clean == "" {
		clean = "snapshot.png"
	}
	return fmt.Sprintf(`attachment; filename="%s"`, clean)
}
