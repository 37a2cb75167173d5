package repository

import (
	"context"

	"github.com/ipede/imaging-service/internal/domain"
	"github.com/ipede/imaging-service/internal/infrastructure/database"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ImageRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

func NewImageRepository(db *database.Postgres, logger *zap.Logger) *ImageRepository {
	return &ImageRepository{db: db, logger: logger}
}

func (r *ImageRepository) Create(ctx context.Context, image *domain.Image) error {
	return r.db.Exec(ctx, `
		INSERT INTO images (id, patient_id, filename, content_type, size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, image.ID.String(), image.PatientID, image.Filename, image.ContentType, image.Size, image.UploadedBy, image.CreatedAt)
}

func (r *ImageRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Image, error) {
	image := &domain.Image{}
	var rawID string
	err := r.db.QueryRow(ctx, `
		SELECT id, patient_id, filename, content_type, size, uploaded_by, created_at
		FROM images WHERE id = $1
	`, id.String()).Scan(&rawID, &image.PatientID, &image.Filename, &image.ContentType, &image.Size, &image.UploadedBy, &image.CreatedAt)
	if err != nil {
		r.logger.Error("failed to find image by id", zap.String("id", id.String()), zap.Error(err))
		return nil, domain.ErrImageNotFound
	}

	image.ID, err = ulid.Parse(rawID)
	if err != nil {
		r.logger.Error("failed to parse image id", zap.String("id", rawID), zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return image, nil
}

func (r *ImageRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*domain.Image, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, filename, content_type, size, uploaded_by, created_at
		FROM images
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		r.logger.Error("failed to list images", zap.String("patient_id", patientID), zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		image := &domain.Image{}
		var rawID string
		err := rows.Scan(&rawID, &image.PatientID, &image.Filename, &image.ContentType, &image.Size, &image.UploadedBy, &image.CreatedAt)
		if err != nil {
			r.logger.Error("failed to scan image", zap.Error(err))
			return nil, domain.ErrDatabaseQuery
		}
		image.ID, err = ulid.Parse(rawID)
		if err != nil {
			r.logger.Error("failed to parse image id", zap.String("id", rawID), zap.Error(err))
			return nil, domain.ErrDatabaseQuery
		}
		images = append(images, image)
	}
	return images, nil
}
