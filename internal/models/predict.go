package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidUpload marks an upload that is missing a name or content.
var ErrInvalidUpload = errors.New("invalid upload")

// PredictRequest is a decoded multipart upload.
type PredictRequest struct {
	ID       string
	FileName string
	Data     []byte
}

// Format returns the lower-cased file extension without the dot.
func (r PredictRequest) Format() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(r.FileName), "."))
}

func (r PredictRequest) Validate() error {
	if r.FileName == "" {
		return fmt.Errorf("%w: no file selected", ErrInvalidUpload)
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}
	return nil
}

// PredictResponse is returned by POST /predict on success.
type PredictResponse struct {
	Success        bool               `json:"success" example:"true"`
	Prediction     string             `json:"prediction" example:"Adenocarcinoma"`
	Confidence     float64            `json:"confidence" example:"72.5"`
	AllPredictions map[string]float64 `json:"all_predictions"`
}

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid file type"`
}

type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	ModelLoaded bool   `json:"model_loaded" example:"true"`
}
