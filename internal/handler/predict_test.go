package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/kdduha/lungscan/internal/models"
	"github.com/kdduha/lungscan/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	resp   *models.PredictResponse
	err    error
	loaded bool
	got    *models.PredictRequest
}

func (s *stubService) Predict(_ context.Context, req *models.PredictRequest) (*models.PredictResponse, error) {
	s.got = req
	return s.resp, s.err
}

func (s *stubService) ModelLoaded() bool {
	return s.loaded
}

func multipartRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestPredictSuccess(t *testing.T) {
	svc := &stubService{resp: &models.PredictResponse{
		Success:        true,
		Prediction:     "Normal",
		Confidence:     91.2,
		AllPredictions: map[string]float64{"Normal": 91.2, "Adenocarcinoma": 8.8},
	}}
	h := NewPredictHandler(svc, service.DefaultMaxUploadBytes)

	rec := httptest.NewRecorder()
	h.Predict(rec, multipartRequest(t, FileField, "scan.png", []byte("png")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Prediction-Id"))

	var resp models.PredictResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Normal", resp.Prediction)

	require.NotNil(t, svc.got)
	assert.Equal(t, "scan.png", svc.got.FileName)
	assert.Equal(t, []byte("png"), svc.got.Data)
}

func TestPredictMissingFile(t *testing.T) {
	h := NewPredictHandler(&stubService{}, service.DefaultMaxUploadBytes)

	rec := httptest.NewRecorder()
	h.Predict(rec, multipartRequest(t, "", "", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file part", decodeError(t, rec))
}

func TestPredictServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"format", fmt.Errorf("%w: gif", service.ErrUnsupportedFormat), http.StatusBadRequest, "Invalid file type. Please upload PNG, JPG, or JPEG images."},
		{"size", service.ErrTooLarge, http.StatusRequestEntityTooLarge, "File size exceeds 16MB limit"},
		{"model", fmt.Errorf("%w: missing weights", service.ErrModelNotLoaded), http.StatusInternalServerError, "model load failed: missing weights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPredictHandler(&stubService{err: tt.err}, service.DefaultMaxUploadBytes)

			rec := httptest.NewRecorder()
			h.Predict(rec, multipartRequest(t, FileField, "scan.gif", []byte("gif")))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec))
		})
	}
}

func TestPredictBodyTooLarge(t *testing.T) {
	h := NewPredictHandler(&stubService{}, 1024)

	rec := httptest.NewRecorder()
	h.Predict(rec, multipartRequest(t, FileField, "scan.png", make([]byte, multipartOverhead+4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealth(t *testing.T) {
	h := NewPredictHandler(&stubService{loaded: true}, service.DefaultMaxUploadBytes)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.HealthResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.ModelLoaded)
}

func TestPredictEmptyFileIsBadRequest(t *testing.T) {
	svc := service.NewPredictService(log.New(io.Discard, "", 0), nil, nil, service.DefaultMaxUploadBytes)
	h := NewPredictHandler(svc, service.DefaultMaxUploadBytes)

	rec := httptest.NewRecorder()
	h.Predict(rec, multipartRequest(t, FileField, "scan.png", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid upload: file is empty", decodeError(t, rec))
}

func TestPredictFieldWithoutFilename(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(FileField, "png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	h := NewPredictHandler(&stubService{}, service.DefaultMaxUploadBytes)
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file part", decodeError(t, rec))
}
