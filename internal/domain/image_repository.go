package domain

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// ImageRepository defines the interface for image metadata persistence
type ImageRepository interface {
	// Create stores a new image record
	Create(ctx context.Context, image *Image) error

	// FindByID retrieves an image record by ID
	FindByID(ctx context.Context, id ulid.ULID) (*Image, error)

	// ListByPatient retrieves image records for a patient, newest first
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Image, error)
}
