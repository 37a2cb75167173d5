package dto

import (
	"time"

	"github.com/ipede/imaging-service/internal/domain"
)

// ImageResponse represents an image metadata record in API responses
// @Description Image metadata
type ImageResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewImageResponse creates an ImageResponse from a domain image
func NewImageResponse(image *domain.Image) *ImageResponse {
	return &ImageResponse{
		ID:          image.ID.String(),
		PatientID:   image.PatientID,
		Filename:    image.Filename,
		ContentType: image.ContentType,
		Size:        image.Size,
		UploadedBy:  image.UploadedBy,
		CreatedAt:   image.CreatedAt,
	}
}
