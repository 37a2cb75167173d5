package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Image is the metadata record for an uploaded medical image. The binary
// payload lives in file storage under the image ID.
type Image struct {
	ID          ulid.ULID
	PatientID   string
	Filename    string
	ContentType string
	Size        int64
	UploadedBy  string
	CreatedAt   time.Time
}
