// Package storage resolves pokemon sprite URLs, either straight from the
// public sprite repository or from a MinIO mirror filled by the seeder.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"pokedex-backend/shared/config"
)

// ImageResolver turns a pokemon source id into a displayable image URL
type ImageResolver interface {
	ImageURL(ctx context.Context, sourceID string) string
}

// BaseURLResolver appends <sourceId>.png to a fixed base URL
type BaseURLResolver struct {
	BaseURL string
}

func (r BaseURLResolver) ImageURL(_ context.Context, sourceID string) string {
	return fmt.Sprintf("%s/%s.png", strings.TrimSuffix(r.BaseURL, "/"), sourceID)
}

// SpriteStore mirrors sprites into a MinIO bucket and serves them through
// presigned links.
type SpriteStore struct {
	client     *minio.Client
	bucketName string
	presignTTL time.Duration
	fallback   ImageResolver
	httpClient *http.Client
}

// NewSpriteStore connects to MinIO and creates the bucket if needed
func NewSpriteStore(ctx context.Context, cfg *config.Config) (*SpriteStore, error) {
	endpoint := cfg.MinIOServerURL
	if parsedURL, err := url.Parse(cfg.MinIOServerURL); err == nil && parsedURL.Host != "" {
		endpoint = parsedURL.Host
	}

	log.Info().Str("endpoint", endpoint).Bool("ssl", cfg.MinIOUseSSL).Msg("connecting to MinIO")

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &SpriteStore{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
		presignTTL: cfg.MinIOPresignTTL,
		fallback:   BaseURLResolver{BaseURL: cfg.PokemonImageBaseURL},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	if err := s.initializeBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SpriteStore) initializeBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	log.Info().Str("bucket", s.bucketName).Msg("MinIO bucket created")
	return nil
}

// ObjectName is the bucket key of a sprite
func ObjectName(sourceID string) string {
	return sourceID + ".png"
}

// ImageURL returns a presigned link, or the public URL when signing fails
func (s *SpriteStore) ImageURL(ctx context.Context, sourceID string) string {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, ObjectName(sourceID), s.presignTTL, nil)
	if err != nil {
		log.Warn().Err(err).Str("source_id", sourceID).Msg("presign failed, using public sprite URL")
		return s.fallback.ImageURL(ctx, sourceID)
	}
	return u.String()
}

// Mirror copies one sprite from the public repository into the bucket.
// Sprites already present are skipped.
func (s *SpriteStore) Mirror(ctx context.Context, sourceID string) error {
	object := ObjectName(sourceID)
	if _, err := s.client.StatObject(ctx, s.bucketName, object, minio.StatObjectOptions{}); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fallback.ImageURL(ctx, sourceID), nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download sprite %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("failed to download sprite %s: status %d", sourceID, resp.StatusCode)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, object, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return fmt.Errorf("failed to upload sprite %s: %w", sourceID, err)
	}
	return nil
}

// NewImageResolver picks the resolver configured by POKEMON_IMAGE_SOURCE.
// A MinIO failure degrades to public URLs.
func NewImageResolver(ctx context.Context, cfg *config.Config) ImageResolver {
	if strings.EqualFold(cfg.PokemonImageSource, "minio") {
		s, err := NewSpriteStore(ctx, cfg)
		if err == nil {
			return s
		}
		log.Warn().Err(err).Msg("MinIO unavailable, serving public sprite URLs")
	}
	return BaseURLResolver{BaseURL: cfg.PokemonImageBaseURL}
}
