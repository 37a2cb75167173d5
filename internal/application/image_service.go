package application

import (
	"context"
	"io"
	"time"

	"github.com/ipede/imaging-service/internal/domain"
	apperrors "github.com/ipede/imaging-service/internal/domain/errors"
	"github.com/ipede/imaging-service/internal/infrastructure/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ImageService struct {
	repo    domain.ImageRepository
	storage *storage.FileStorage
	logger  *zap.Logger
}

func NewImageService(repo domain.ImageRepository, storage *storage.FileStorage, logger *zap.Logger) *ImageService {
	return &ImageService{
		repo:    repo,
		storage: storage,
		logger:  logger,
	}
}

// UploadImage stores the payload and its metadata record
func (s *ImageService) UploadImage(ctx context.Context, patientID, filename, contentType, uploadedBy string, r io.Reader) (*domain.Image, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient ID is required")
	}
	if filename == "" {
		return nil, apperrors.NewValidationError("filename is required")
	}

	id := ulid.Make()

	size, err := s.storage.Save(id, r)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to store image", err)
	}

	image := &domain.Image{
		ID:          id,
		PatientID:   patientID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, image); err != nil {
		// best effort: do not keep an orphaned payload
		if rmErr := s.storage.Remove(id); rmErr != nil {
			s.logger.Warn("failed to remove orphaned image payload", zap.String("id", id.String()), zap.Error(rmErr))
		}
		return nil, apperrors.NewInternalError("failed to store image metadata", err)
	}

	return image, nil
}

// GetImage returns the metadata record and a reader over the payload.
// The caller owns closing the reader.
func (s *ImageService) GetImage(ctx context.Context, id ulid.ULID) (*domain.Image, io.ReadCloser, error) {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewNotFoundError("image not found")
	}

	payload, err := s.storage.Open(id)
	if err != nil {
		s.logger.Error("image metadata exists but payload is missing", zap.String("id", id.String()), zap.Error(err))
		return nil, nil, apperrors.NewInternalError("failed to open image payload", err)
	}

	return image, payload, nil
}

// ListPatientImages retrieves a patient's image records with pagination
func (s *ImageService) ListPatientImages(ctx context.Context, patientID string, limit, offset int) ([]*domain.Image, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient ID is required")
	}

	images, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list images", err)
	}
	return images, nil
}
