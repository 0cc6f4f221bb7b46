package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kdduha/lungscan/internal/uploader"
	"github.com/stretchr/testify/assert"
)

func TestShowResults(t *testing.T) {
	var out bytes.Buffer
	v := NewView(&out)

	v.ShowResults(uploader.Preview{Name: "scan.png"}, uploader.Render(&uploader.PredictionResult{
		Prediction:     "Normal",
		Confidence:     50,
		AllPredictions: map[string]float64{"Normal": 50, "Adenocarcinoma": 30, "Large Cell Carcinoma": 20},
	}))

	text := out.String()
	assert.Contains(t, text, "Prediction: Normal  [50%]")
	assert.Contains(t, text, "["+strings.Repeat("#", 20)+strings.Repeat(".", 20)+"] 50%")
	assert.Less(t, strings.Index(text, "Adenocarcinoma"), strings.Index(text, "Large Cell Carcinoma"))
	assert.Contains(t, text, "30.00%")
}

func TestErrorVisibility(t *testing.T) {
	var out bytes.Buffer
	v := NewView(&out)

	v.ShowError("bad image")
	assert.True(t, v.ErrorVisible())
	assert.Equal(t, "Error: bad image\n", out.String())

	v.HideError()
	assert.False(t, v.ErrorVisible())
}

func TestShowPreview(t *testing.T) {
	var out bytes.Buffer
	v := NewView(&out)

	v.ShowPreview(uploader.Preview{Name: "scan.png", Size: 2048, Width: 350, Height: 350})
	assert.Equal(t, "Selected scan.png (350x350, 2.00 KB)\n", out.String())
}
