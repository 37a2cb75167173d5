package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/imaging-service/internal/application"
	"github.com/ipede/imaging-service/internal/domain"
	apperrors "github.com/ipede/imaging-service/internal/domain/errors"
	"github.com/ipede/imaging-service/internal/interfaces/http/dto"
	"github.com/ipede/imaging-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// maxUploadSize caps the in-memory portion of multipart parsing
const maxUploadSize = 32 << 20

type ImageHandler struct {
	imageService *application.ImageService
	logger       *zap.Logger
}

func NewImageHandler(imageService *application.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// UploadImageHandler handles multipart image uploads
// @Summary Upload an image for a patient
// @Security BearerAuth
func (h *ImageHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		errors.RespondWithError(w, errors.ErrCodeValidation, "invalid multipart request", http.StatusBadRequest)
		return
	}

	patientID := r.FormValue("patient_id")
	if patientID == "" {
		errors.RespondWithError(w, errors.ErrCodeValidation, "patient_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.RespondWithError(w, errors.ErrCodeValidation, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	uploadedBy := ""
	if identity, ok := domain.GetIdentity(r.Context()); ok {
		uploadedBy = identity.ID
	}

	image, err := h.imageService.UploadImage(
		r.Context(),
		patientID,
		header.Filename,
		header.Header.Get("Content-Type"),
		uploadedBy,
		file,
	)
	if err != nil {
		h.respondServiceError(w, err, "failed to upload image")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dto.NewImageResponse(image)); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// GetImageHandler streams an image payload
// @Summary Retrieve an image by ID
// @Security BearerAuth
func (h *ImageHandler) GetImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errors.RespondWithError(w, errors.ErrCodeValidation, "invalid image ID", http.StatusBadRequest)
		return
	}

	image, payload, err := h.imageService.GetImage(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get image")
		return
	}
	defer payload.Close()

	if image.ContentType != "" {
		w.Header().Set("Content-Type", image.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", image.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(image.Size, 10))

	if _, err := io.Copy(w, payload); err != nil {
		h.logger.Error("failed to stream image payload", zap.String("id", id.String()), zap.Error(err))
	}
}

// ListPatientImagesHandler lists a patient's image records
// @Summary List images for a patient
// @Security BearerAuth
func (h *ImageHandler) ListPatientImagesHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	images, err := h.imageService.ListPatientImages(r.Context(), patientID, limit, offset)
	if err != nil {
		h.respondServiceError(w, err, "failed to list images")
		return
	}

	response := make([]*dto.ImageResponse, len(images))
	for i, image := range images {
		response[i] = dto.NewImageResponse(image)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *ImageHandler) respondServiceError(w http.ResponseWriter, err error, logMessage string) {
	switch {
	case apperrors.IsValidationError(err):
		errors.RespondWithError(w, errors.ErrCodeValidation, err.Error(), http.StatusBadRequest)
	case apperrors.IsNotFoundError(err):
		errors.RespondWithError(w, errors.ErrCodeNotFound, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(logMessage, zap.Error(err))
		errors.RespondWithError(w, errors.ErrCodeInternal, logMessage, http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}
