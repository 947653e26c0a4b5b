package repository

import (
	"context"

	"github.com/google/uuid"
)

// CreateRequestPhotoParams holds the insert values for an item photo.
type CreateRequestPhotoParams struct {
	RequestID    uuid.UUID
	ObjectKey    string
	ThumbnailKey string
	ContentType  string
	SizeBytes    int64
}

// CreateRequestPhoto inserts a photo record for a request.
func (q *Queries) CreateRequestPhoto(ctx context.Context, arg CreateRequestPhotoParams) (RequestPhoto, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO request_photos (id, request_id, object_key, thumbnail_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, request_id, object_key, thumbnail_key, content_type, size_bytes, created_at`,
		uuid.New(), arg.RequestID, arg.ObjectKey, arg.ThumbnailKey, arg.ContentType, arg.SizeBytes,
	)
	var p RequestPhoto
	err := row.Scan(&p.ID, &p.RequestID, &p.ObjectKey, &p.ThumbnailKey,
		&p.ContentType, &p.SizeBytes, &p.CreatedAt)
	return p, err
}

// ListPhotosByRequest returns all photos attached to a request, oldest first.
func (q *Queries) ListPhotosByRequest(ctx context.Context, requestID uuid.UUID) ([]RequestPhoto, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, request_id, object_key, thumbnail_key, content_type, size_bytes, created_at
		FROM request_photos
		WHERE request_id = $1
		ORDER BY created_at ASC`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []RequestPhoto
	for rows.Next() {
		var p RequestPhoto
		if err := rows.Scan(&p.ID, &p.RequestID, &p.ObjectKey, &p.ThumbnailKey,
			&p.ContentType, &p.SizeBytes, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
