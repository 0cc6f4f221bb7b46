package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeepsDistribution(t *testing.T) {
	in := []float64{0.1, 0.2, 0.7}
	assert.Equal(t, in, Normalize(in))
}

func TestNormalizeAppliesSoftmaxToLogits(t *testing.T) {
	out := Normalize([]float64{2, 1, -1})

	sum := 0.0
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, out[0], out[1])
	assert.Greater(t, out[1], out[2])
}

func TestRescale(t *testing.T) {
	out, err := Rescale([]float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, out)

	_, err = Rescale([]float64{0, 0})
	assert.Error(t, err)

	_, err = Rescale([]float64{-1, 2})
	assert.Error(t, err)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, 2, ArgMax([]float64{0.1, 0.2, 0.7}))
	assert.Equal(t, 0, ArgMax([]float64{0.5, 0.5}))
}

func TestParseScores(t *testing.T) {
	meta := DefaultMetadata()

	content := "Sure:\n```json\n{\"Normal\": 0.6, \"adenocarcinoma_left.lower.lobe_T2_N0_M0_Ib\": 0.2, \"Large Cell Carcinoma\": 0.2, \"pneumonia\": 5}\n```"
	scores, err := ParseScores(content, meta)
	require.NoError(t, err)

	require.Len(t, scores, 4)
	assert.InDelta(t, 0.2, scores[0], 1e-9)
	assert.InDelta(t, 0.2, scores[1], 1e-9)
	assert.InDelta(t, 0.6, scores[2], 1e-9)
	assert.Zero(t, scores[3])
}

func TestParseScoresRejectsProse(t *testing.T) {
	_, err := ParseScores("looks normal to me", DefaultMetadata())
	assert.Error(t, err)
}

func TestLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	yaml := `
image_size: 224
layout: nchw
input_shape: [1, 3, 224, 224]
output_shape: [1, 2]
classes: [cat, dog]
class_names:
  cat: Cat
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	meta, err := LoadMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, 224, meta.ImageSize)
	assert.Equal(t, LayoutNCHW, meta.Layout)
	assert.Equal(t, []string{"cat", "dog"}, meta.Classes)
	assert.Equal(t, "input", meta.InputName)
	assert.Equal(t, "Cat", meta.DisplayName("cat"))
	assert.Equal(t, "dog", meta.DisplayName("dog"))
}

func TestLoadMetadataRejectsBadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: hwc\n"), 0o644))

	_, err := LoadMetadata(path)
	assert.Error(t, err)
}

func TestPreprocessLayouts(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	nhwc, err := Preprocess(buf.Bytes(), 2, LayoutNHWC)
	require.NoError(t, err)
	require.Len(t, nhwc, 12)
	assert.InDelta(t, 1.0, nhwc[0], 1e-3)
	assert.InDelta(t, 0.0, nhwc[1], 1e-3)
	assert.InDelta(t, 1.0, nhwc[3], 1e-3)

	nchw, err := Preprocess(buf.Bytes(), 2, LayoutNCHW)
	require.NoError(t, err)
	require.Len(t, nchw, 12)
	assert.InDelta(t, 1.0, nchw[0], 1e-3)
	assert.InDelta(t, 1.0, nchw[3], 1e-3)
	assert.InDelta(t, 0.0, nchw[4], 1e-3)
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	_, err := Preprocess([]byte("not an image"), 2, LayoutNHWC)
	assert.Error(t, err)
}
