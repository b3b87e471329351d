package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Image is a gallery texture belonging to a session.
type Image struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Position    int       `json:"position"`
	ContentType string    `json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImageRepository stores gallery textures.
type ImageRepository struct {
	db *sql.DB
}

// Images returns the image repository for this store.
func (s *Store) Images() *ImageRepository {
	return &ImageRepository{db: s.db}
}

// CreateBatch inserts images for a session in a single transaction and
// updates the session's photo count. Positions follow slice order.
func (r *ImageRepository) CreateBatch(sessionID string, images []*Image) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO images (id, session_id, position, content_type, width, height, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, img := range images {
		if img.ID == "" {
			img.ID = uuid.New().String()
		}
		img.SessionID = sessionID
		img.Position = i
		img.CreatedAt = now
		if _, err := stmt.Exec(img.ID, sessionID, i, img.ContentType, img.Width, img.Height, img.Data, now); err != nil {
			return err
		}
	}

	result, err := tx.Exec(`UPDATE sessions SET photo_count = ? WHERE id = ?`, len(images), sessionID)
	if err != nil {
		return err
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves an image including its bytes.
func (r *ImageRepository) GetByID(id string) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRow(
		`SELECT id, session_id, position, content_type, width, height, data, created_at
		 FROM images WHERE id = ?`,
		id,
	).Scan(&img.ID, &img.SessionID, &img.Position, &img.ContentType, &img.Width, &img.Height, &img.Data, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return img, nil
}

// ListBySession returns a session's images in gallery order, without their
// bytes.
func (r *ImageRepository) ListBySession(sessionID string) ([]*Image, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, position, content_type, width, height, created_at
		 FROM images WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		if err := rows.Scan(&img.ID, &img.SessionID, &img.Position, &img.ContentType, &img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return images, nil
}
