package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PhotoService manages item photos attached to moving requests.
type PhotoService interface {
	// Upload stores an item photo and its generated thumbnail for a request.
	// Only the request owner may upload; uploads are rejected once the
	// request is completed or cancelled.
	Upload(ctx context.Context, actor *domain.User, requestID uuid.UUID, filename string, size int64, file io.Reader) (*domain.RequestPhoto, error)

	// ListByRequest returns the photos of a request with resolved URLs.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestPhoto, error)
}

// =============================================================================
// Implementation
// =============================================================================

type photoService struct {
	queries    *repository.Queries
	store      storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(queries *repository.Queries, store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) PhotoService {
	return &photoService{
		queries:    queries,
		store:      store,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

func (s *photoService) Upload(ctx context.Context, actor *domain.User, requestID uuid.UUID, filename string, size int64, file io.Reader) (*domain.RequestPhoto, error) {
	const op = "photo.upload"

	requestRow, err := s.queries.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", requestID.String())
		}
		return nil, domain.Internal(err, op, "failed to load request")
	}
	request := RepoRequestToDomain(requestRow)

	if request.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.Forbidden(op, "Only the request owner can upload photos.")
	}
	switch request.Status {
	case domain.RequestStatusCompleted, domain.RequestStatusCancelled:
		return nil, domain.Conflict(op, "Photos cannot be added to a "+request.Status.String()+" request")
	}

	if size > domain.MaxPhotoSizeBytes {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "photo exceeds the %d MB limit", domain.MaxPhotoSizeBytes>>20)
	}

	existing, err := s.queries.ListPhotosByRequest(ctx, requestID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count existing photos")
	}
	if len(existing) >= domain.MaxPhotosPerRequest {
		return nil, domain.Conflict(op, fmt.Sprintf("A request can carry at most %d photos", domain.MaxPhotosPerRequest))
	}

	// Sniff the real content type from the payload rather than trusting the
	// upload headers.
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxPhotoSizeBytes+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read photo data")
	}
	if int64(len(data)) > domain.MaxPhotoSizeBytes {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "photo exceeds the %d MB limit", domain.MaxPhotoSizeBytes>>20)
	}
	contentType := http.DetectContentType(data)
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, "Unsupported image type: "+contentType+". Only JPEG, PNG and WebP are supported.")
	}

	thumbnailBytes, _, _, err := s.thumbnails.GenerateThumbnail(
		bytes.NewReader(data), domain.ThumbnailMaxWidth, domain.ThumbnailMaxHeight)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate thumbnail")
	}

	photoID := uuid.New()
	objectKey := storage.PhotoKey(requestID, photoID, filename)
	thumbnailKey := storage.PhotoThumbnailKey(requestID, photoID)

	if err := s.store.Put(ctx, objectKey, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxPhotoSizeBytes,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to upload photo")
	}
	if err := s.store.Put(ctx, thumbnailKey, bytes.NewReader(thumbnailBytes), storage.PutOptions{
		ContentType: "image/jpeg",
	}); err != nil {
		_ = s.store.Delete(ctx, objectKey)
		return nil, domain.Internal(err, op, "failed to upload thumbnail")
	}

	row, err := s.queries.CreateRequestPhoto(ctx, repository.CreateRequestPhotoParams{
		RequestID:    requestID,
		ObjectKey:    objectKey,
		ThumbnailKey: thumbnailKey,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
	})
	if err != nil {
		_ = s.store.Delete(ctx, objectKey)
		_ = s.store.Delete(ctx, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to create photo record")
	}

	photo := s.toDomain(ctx, row)
	s.logger.Info("photo uploaded",
		"request_id", requestID,
		"photo_id", photo.ID,
		"size_bytes", photo.SizeBytes,
	)
	return photo, nil
}

func (s *photoService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestPhoto, error) {
	const op = "photo.list"

	rows, err := s.queries.ListPhotosByRequest(ctx, requestID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list photos")
	}

	photos := make([]domain.RequestPhoto, 0, len(rows))
	for _, row := range rows {
		photos = append(photos, *s.toDomain(ctx, row))
	}
	return photos, nil
}

// toDomain converts a repository photo row and resolves fresh URLs. URL
// failures are tolerated; the record is still returned without links.
func (s *photoService) toDomain(ctx context.Context, p repository.RequestPhoto) *domain.RequestPhoto {
	photo := &domain.RequestPhoto{
		ID:           p.ID,
		RequestID:    p.RequestID,
		ObjectKey:    p.ObjectKey,
		ThumbnailKey: p.ThumbnailKey,
		ContentType:  p.ContentType,
		SizeBytes:    p.SizeBytes,
		CreatedAt:    p.CreatedAt,
	}

	if url, err := s.store.URL(ctx, p.ObjectKey, 1*time.Hour); err == nil {
		photo.URL = url
	} else {
		s.logger.Warn("failed to resolve photo URL", "key", p.ObjectKey, "error", err)
	}
	if url, err := s.store.URL(ctx, p.ThumbnailKey, 1*time.Hour); err == nil {
		photo.ThumbnailURL = url
	}
	return photo
}
