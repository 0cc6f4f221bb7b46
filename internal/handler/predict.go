package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/kdduha/lungscan/internal/models"
	"github.com/kdduha/lungscan/internal/service"
)

const (
	// FileField is the multipart field carrying the image.
	FileField = "file"

	// multipartOverhead is allowed on top of the file limit for boundaries and
	// part headers.
	multipartOverhead = 512 << 10

	maxFormMemory = 32 << 20
)

type predictService interface {
	Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResponse, error)
	ModelLoaded() bool
}

type PredictHandler struct {
	service  predictService
	maxBytes int64
}

func NewPredictHandler(service predictService, maxBytes int64) *PredictHandler {
	return &PredictHandler{
		service:  service,
		maxBytes: maxBytes,
	}
}

// Predict godoc
// @Summary Classify a CT scan image
// @Description Upload a PNG or JPEG image as multipart field "file" and receive the class distribution.
// @Tags predict
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CT scan image (PNG, JPG, JPEG, up to 16MB)"
// @Success 200 {object} models.PredictResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /predict [post]
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(h.maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %s", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FileField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %s", err))
		return
	}

	req := &models.PredictRequest{
		ID:       uuid.NewString(),
		FileName: header.Filename,
		Data:     data,
	}
	w.Header().Set("X-Prediction-Id", req.ID)

	resp, err := h.service.Predict(r.Context(), req)
	switch {
	case errors.Is(err, models.ErrInvalidUpload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload PNG, JPG, or JPEG images.")
	case errors.Is(err, service.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(h.maxBytes))
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *PredictHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.service.ModelLoaded(),
	})
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File size exceeds %dMB limit", maxBytes>>20)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, models.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
