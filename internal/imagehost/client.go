// Package imagehost stores product images and avatars in S3-compatible object storage.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/pkg/model"
)

// Folders
const (
	FolderProducts = "products"
	FolderAvatars  = "avatars"
)

// ErrDisabled is returned when no image host is configured.
var ErrDisabled = model.Errorf(model.ErrUpstream, "image host not configured")

// ObjectStore is the subset of *minio.Client used by Client.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// Client uploads and destroys images. The zero value is disabled.
type Client struct {
	store   ObjectStore
	cfg     Config
	baseURL string
	logger  *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewClient creates an image host client. If cfg has an empty Endpoint the client
// is disabled.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return newClient(nil, cfg), nil
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return newClient(mc, cfg), nil
}

func newClient(store ObjectStore, cfg Config) *Client {
	base := cfg.PublicURL
	if base == "" && cfg.Endpoint != "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		base = scheme + cfg.Endpoint
	}
	return &Client{
		store:   store,
		cfg:     cfg,
		baseURL: strings.TrimSuffix(base, "/"),
		logger:  slog.Default().With("component", "imagehost"),
	}
}

// Enabled reports whether the client is configured.
func (c *Client) Enabled() bool {
	return c.store != nil
}

// ensureBucket creates the bucket on first use. Failures are retried on the next call.
func (c *Client) ensureBucket(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bucketReady {
		return nil
	}
	exists, err := c.store.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.store.MakeBucket(ctx, c.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	c.bucketReady = true
	return nil
}

// Upload stores one image given as a base64 data URI under folder.
func (c *Client) Upload(ctx context.Context, folder, data string) (types.Image, error) {
	if !c.Enabled() {
		return types.Image{}, ErrDisabled
	}

	contentType, raw, err := decodeDataURI(data)
	if err != nil {
		return types.Image{}, model.Wrap(model.ErrValidation, err, "invalid image")
	}
	if c.cfg.MaxImageBytes > 0 && int64(len(raw)) > c.cfg.MaxImageBytes {
		return types.Image{}, model.Errorf(model.ErrValidation, "image exceeds %d bytes", c.cfg.MaxImageBytes)
	}

	if err := c.ensureBucket(ctx); err != nil {
		return types.Image{}, model.Wrap(model.ErrUpstream, err, "image upload failed")
	}

	key := folder + "/" + uuid.NewString() + extension(contentType)
	_, err = c.store.PutObject(ctx, c.cfg.Bucket, key, bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return types.Image{}, model.Wrap(model.ErrUpstream, err, "image upload failed")
	}

	return types.Image{PublicID: key, URL: c.baseURL + "/" + c.cfg.Bucket + "/" + key}, nil
}

// Destroy removes an image by its public id. Removing a missing object succeeds.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if publicID == "" {
		return nil
	}
	if err := c.store.RemoveObject(ctx, c.cfg.Bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return model.Wrap(model.ErrUpstream, err, "image delete failed")
	}
	return nil
}

// UploadAll uploads every image concurrently and returns them in input order.
// If any upload fails, the images already stored by this batch are destroyed
// and the first error is returned.
func (c *Client) UploadAll(ctx context.Context, folder string, data []string) ([]types.Image, error) {
	images := make([]types.Image, len(data))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range data {
		g.Go(func() error {
			img, err := c.Upload(gctx, folder, d)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, img := range images {
			if img.PublicID != "" {
				uploaded = append(uploaded, img.PublicID)
			}
		}
		// ctx may already be done; cleanup gets its own.
		if cerr := c.DestroyAll(context.WithoutCancel(ctx), uploaded); cerr != nil {
			c.logger.Warn("Failed to clean up partial upload batch", "count", len(uploaded), "error", cerr)
		}
		return nil, err
	}
	return images, nil
}

// DestroyAll removes every image concurrently. All removals are attempted; the
// joined errors are returned.
func (c *Client) DestroyAll(ctx context.Context, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}
	errs := make([]error, len(publicIDs))
	var g errgroup.Group
	for i, id := range publicIDs {
		g.Go(func() error {
			errs[i] = c.Destroy(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(errs...); err != nil {
		return model.Wrap(model.ErrUpstream, err, "image delete failed")
	}
	return nil
}
