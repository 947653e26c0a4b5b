package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ThumbnailJPEGQuality is the JPEG quality for generated thumbnails.
	ThumbnailJPEGQuality = 85

	// ThumbnailMaxWidth and ThumbnailMaxHeight bound generated thumbnails
	// while preserving aspect ratio.
	ThumbnailMaxWidth  = 400
	ThumbnailMaxHeight = 400

	// MaxPhotoSizeBytes caps a single uploaded item photo (10 MiB).
	MaxPhotoSizeBytes = 10 << 20

	// MaxPhotosPerRequest caps how many item photos one request may carry.
	MaxPhotosPerRequest = 12
)

// RequestPhoto is an item photo attached to a moving request.
type RequestPhoto struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	ObjectKey    string // Storage key of the original image
	ThumbnailKey string // Storage key of the generated thumbnail
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time

	// Computed: public URLs resolved by the storage backend.
	URL          string
	ThumbnailURL string
}
