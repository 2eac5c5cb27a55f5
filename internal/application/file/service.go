// Package file stores uploaded objects (listing photos, avatars) in the blob
// store and records them in the files table. Image uploads produce two
// renditions: the original and an optimized JPEG for feeds and avatars.
package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/go-market-nosql/internal/domain"
	"github.com/go-market-nosql/internal/pkg/id"
	"github.com/go-market-nosql/internal/pkg/imaging"
)

// Optimized listing photos fit within this square.
const listingImageSize = 1024

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploaderID  string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	UploadListingImage(ctx context.Context, filename, base64Data, uploaderID string) (*domain.ListingImage, error)
	UploadAvatar(ctx context.Context, filename, base64Data, uploaderID string) (string, error)
	Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error)
	Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error
}

type blobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	SoftDelete(ctx context.Context, fileID string) error
}

type service struct {
	blobs blobStore
	repo  fileStore
}

func NewService(blobs blobStore, repo fileStore) Service {
	return &service{blobs: blobs, repo: repo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("files/%s/%s-%s", input.UploaderID, id.New(), safeName)
	url, err := s.blobs.Upload(ctx, key, input.Reader, input.ContentType)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, key, safeName, input.ContentType, input.Size, url, input.UploaderID, false)
}

// UploadListingImage stores the original photo plus an optimized JPEG
// rendition and returns both URLs for embedding on a listing. A broken image
// fails the upload before anything is stored.
func (s *service) UploadListingImage(ctx context.Context, filename, base64Data, uploaderID string) (*domain.ListingImage, error) {
	decoded, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", domain.ErrBadRequest)
	}
	optimized, err := imaging.ResizeJPEG(decoded, listingImageSize, listingImageSize, 80)
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", domain.ErrBadRequest)
	}

	safeName := sanitizeFilename(filename)
	uid := id.New()
	origKey := fmt.Sprintf("listings/%s/%s-%s", uploaderID, uid, safeName)
	optKey := fmt.Sprintf("listings/%s/%s-opt.jpg", uploaderID, uid)

	origURL, err := s.blobs.Upload(ctx, origKey, bytes.NewReader(decoded), contentTypeFromName(safeName))
	if err != nil {
		return nil, err
	}
	optURL, err := s.blobs.Upload(ctx, optKey, bytes.NewReader(optimized), "image/jpeg")
	if err != nil {
		return nil, err
	}
	if _, err := s.record(ctx, origKey, safeName, contentTypeFromName(safeName), int64(len(decoded)), origURL, uploaderID, false); err != nil {
		return nil, err
	}
	if _, err := s.record(ctx, optKey, path.Base(optKey), "image/jpeg", int64(len(optimized)), optURL, uploaderID, true); err != nil {
		return nil, err
	}
	return &domain.ListingImage{OriginalURL: origURL, OptimizedURL: optURL}, nil
}

// UploadAvatar stores the original and a square avatar rendition, returning
// the avatar URL for the public profile.
func (s *service) UploadAvatar(ctx context.Context, filename, base64Data, uploaderID string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", domain.ErrBadRequest)
	}
	avatar, err := imaging.Avatar(decoded)
	if err != nil {
		return "", fmt.Errorf("unsupported image: %w", domain.ErrBadRequest)
	}

	safeName := sanitizeFilename(filename)
	uid := id.New()
	origKey := fmt.Sprintf("avatars/%s/%s-%s", uploaderID, uid, safeName)
	avatarKey := fmt.Sprintf("avatars/%s/%s-avatar.jpg", uploaderID, uid)

	if _, err := s.blobs.Upload(ctx, origKey, bytes.NewReader(decoded), contentTypeFromName(safeName)); err != nil {
		return "", err
	}
	avatarURL, err := s.blobs.Upload(ctx, avatarKey, bytes.NewReader(avatar), "image/jpeg")
	if err != nil {
		return "", err
	}
	if _, err := s.record(ctx, avatarKey, path.Base(avatarKey), "image/jpeg", int64(len(avatar)), avatarURL, uploaderID, true); err != nil {
		return "", err
	}
	return avatarURL, nil
}

func (s *service) Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error) {
	f, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !f.Enable {
		return nil, nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	rc, err := s.blobs.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func (s *service) Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error {
	f, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !f.Enable {
		return fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if f.UploadedByUserID != requesterID && !isAdmin {
		return fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	if err := s.blobs.Delete(ctx, f.Object); err != nil {
		slog.Warn("failed to delete blob", "object", f.Object, "err", err)
	}
	return s.repo.SoftDelete(ctx, fileID)
}

func (s *service) record(ctx context.Context, key, name, contentType string, size int64, url, uploaderID string, thumbnail bool) (*domain.File, error) {
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           id.New(),
		Object:           key,
		Size:             size,
		Type:             contentType,
		Name:             name,
		IsThumbnail:      thumbnail,
		URL:              &url,
		UploadedByUserID: uploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
