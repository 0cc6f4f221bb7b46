package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrdersAndFormats(t *testing.T) {
	r := Render(&PredictionResult{
		Prediction: "cat",
		Confidence: 72.5,
		AllPredictions: map[string]float64{
			"dog":  27.5,
			"cat":  72.5,
			"bird": 0.004,
		},
	})

	assert.Equal(t, "cat", r.Label)
	assert.Equal(t, "72.5%", r.Confidence)
	assert.Equal(t, 72.5, r.Progress)
	require.Len(t, r.Entries, 3)
	assert.Equal(t, []RenderedEntry{
		{Label: "cat", Percentage: "72.50%"},
		{Label: "dog", Percentage: "27.50%"},
		{Label: "bird", Percentage: "0.00%"},
	}, r.Entries)
}

func TestSortPredictionsTies(t *testing.T) {
	entries := SortPredictions(map[string]float64{"b": 50, "a": 50, "c": 0})
	assert.Equal(t, []Entry{{"a", 50}, {"b", 50}, {"c", 0}}, entries)
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "73%", FormatConfidence(73))
	assert.Equal(t, "72.5%", FormatConfidence(72.5))
	assert.Equal(t, "72.46%", FormatConfidence(72.456))
	assert.Equal(t, "0%", FormatConfidence(0))
}

func TestRenderClampsProgress(t *testing.T) {
	assert.Equal(t, 100.0, Render(&PredictionResult{Confidence: 100.4}).Progress)
	assert.Equal(t, 0.0, Render(&PredictionResult{Confidence: -1}).Progress)
}

func TestFormatPercentageRoundsHalvesUp(t *testing.T) {
	assert.Equal(t, "0.13%", FormatPercentage(0.125))
	assert.Equal(t, "12.38%", FormatPercentage(12.375))
	assert.Equal(t, "27.50%", FormatPercentage(27.5))
	assert.Equal(t, "0.00%", FormatPercentage(0.004))
	assert.Equal(t, "100.00%", FormatPercentage(100))
}
