package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kdduha/lungscan/internal/classifier"
	"github.com/kdduha/lungscan/internal/metrics"
	"github.com/kdduha/lungscan/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedFormat = errors.New("invalid file type")
	ErrTooLarge          = errors.New("file too large")
	ErrModelNotLoaded    = errors.New("model load failed")
)

type Classifier interface {
	Classify(ctx context.Context, data []byte, format string) ([]float64, error)
	Labels() []string
}

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type PredictService struct {
	logger     *log.Logger
	classifier Classifier
	names      map[string]string
	maxBytes   int64
	cache      Cache
	loadErr    error
}

// NewPredictService wires a classifier. names maps raw class labels to the
// names shown to users; labels without an entry are shown as-is.
func NewPredictService(logger *log.Logger, clf Classifier, names map[string]string, maxBytes int64) *PredictService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &PredictService{
		logger:     logger,
		classifier: clf,
		names:      names,
		maxBytes:   maxBytes,
	}
}

func (p *PredictService) SetCacheClient(cache Cache) {
	p.cache = cache
}

// SetLoadError marks the model as unavailable. Predictions fail with
// ErrModelNotLoaded wrapping err until the process restarts.
func (p *PredictService) SetLoadError(err error) {
	p.loadErr = err
}

func (p *PredictService) ModelLoaded() bool {
	return p.classifier != nil && p.loadErr == nil
}

func (p *PredictService) Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResponse, error) {
	start := time.Now()
	format := req.Format()

	resp, status, err := p.predict(ctx, req, format)

	label := formatLabel(format)
	metrics.PredictionsTotal(status, label)
	metrics.PredictionDuration(status, label, time.Since(start))
	if err != nil {
		p.logger.Printf("prediction %s failed: %v\n", req.ID, err)
		return nil, err
	}
	metrics.PredictedClass(resp.Prediction)
	p.logger.Printf("prediction %s: %s (%.2f%%)\n", req.ID, resp.Prediction, resp.Confidence)
	return resp, nil
}

func (p *PredictService) predict(ctx context.Context, req *models.PredictRequest, format string) (*models.PredictResponse, string, error) {
	if err := req.Validate(); err != nil {
		return nil, metrics.StatusRejected, err
	}
	if _, ok := allowedFormats[format]; !ok {
		return nil, metrics.StatusRejected, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if int64(len(req.Data)) > p.maxBytes {
		return nil, metrics.StatusRejected, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(req.Data))
	}
	if !p.ModelLoaded() {
		if p.loadErr != nil {
			return nil, metrics.StatusFailed, fmt.Errorf("%w: %v", ErrModelNotLoaded, p.loadErr)
		}
		return nil, metrics.StatusFailed, ErrModelNotLoaded
	}

	key := cacheKey(req.Data)
	if cached := p.fromCache(ctx, key); cached != nil {
		p.logger.Printf("prediction %s served from cache\n", req.ID)
		return cached, metrics.StatusCached, nil
	}

	scores, err := p.classifier.Classify(ctx, req.Data, format)
	if err != nil {
		return nil, metrics.StatusFailed, fmt.Errorf("prediction error: %w", err)
	}

	resp, err := p.buildResponse(scores)
	if err != nil {
		return nil, metrics.StatusFailed, err
	}

	p.toCache(ctx, key, resp)
	return resp, metrics.StatusOK, nil
}

func (p *PredictService) buildResponse(scores []float64) (*models.PredictResponse, error) {
	labels := p.classifier.Labels()
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(scores), len(labels))
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("classifier has no labels")
	}

	all := make(map[string]float64, len(labels))
	for i, label := range labels {
		all[p.displayName(label)] = scores[i] * 100
	}

	top := classifier.ArgMax(scores)
	confidence, _ := decimal.NewFromFloat(scores[top] * 100).Round(confidencePlaces).Float64()

	return &models.PredictResponse{
		Success:        true,
		Prediction:     p.displayName(labels[top]),
		Confidence:     confidence,
		AllPredictions: all,
	}, nil
}

func (p *PredictService) displayName(label string) string {
	if name, ok := p.names[label]; ok && name != "" {
		return name
	}
	return label
}

func (p *PredictService) fromCache(ctx context.Context, key string) *models.PredictResponse {
	if p.cache == nil {
		return nil
	}
	cached, found, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Printf("cache get error: %v\n", err)
		return nil
	}
	if !found {
		return nil
	}

	var resp models.PredictResponse
	if err := sonic.UnmarshalString(cached, &resp); err != nil {
		p.logger.Printf("cache decode error: %v\n", err)
		return nil
	}
	return &resp
}

func (p *PredictService) toCache(ctx context.Context, key string, resp *models.PredictResponse) {
	if p.cache == nil {
		return
	}
	encoded, err := sonic.MarshalString(resp)
	if err != nil {
		p.logger.Printf("cache encode error: %v\n", err)
		return
	}
	if err := p.cache.Set(ctx, key, encoded); err != nil {
		p.logger.Printf("failed to set cache: %v\n", err)
	}
}

// formatLabel keeps the file_format label bounded: the extension comes from
// the client, so anything not accepted is reported as "other".
func formatLabel(format string) string {
	if _, ok := allowedFormats[format]; ok {
		return format
	}
	return otherFormat
}

func cacheKey(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
