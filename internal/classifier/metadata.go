package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Metadata describes the model's tensors and its class labels.
type Metadata struct {
	InputName   string            `yaml:"input_name"`
	OutputName  string            `yaml:"output_name"`
	InputShape  []int64           `yaml:"input_shape"`
	OutputShape []int64           `yaml:"output_shape"`
	ImageSize   int               `yaml:"image_size"`
	Layout      string            `yaml:"layout"`
	Classes     []string          `yaml:"classes"`
	ClassNames  map[string]string `yaml:"class_names"`
}

// DefaultMetadata matches the Xception transfer-learning model trained on the
// chest CT dataset: 350x350 RGB input, four softmax outputs.
func DefaultMetadata() Metadata {
	return Metadata{
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 350, 350, 3},
		OutputShape: []int64{1, 4},
		ImageSize:   350,
		Layout:      LayoutNHWC,
		Classes: []string{
			"adenocarcinoma_left.lower.lobe_T2_N0_M0_Ib",
			"large.cell.carcinoma_left.hilum_T2_N2_M0_IIIa",
			"normal",
			"squamous.cell.carcinoma_left.hilum_T1_N2_M0_IIIa",
		},
		ClassNames: map[string]string{
			"adenocarcinoma_left.lower.lobe_T2_N0_M0_Ib":       "Adenocarcinoma",
			"large.cell.carcinoma_left.hilum_T2_N2_M0_IIIa":    "Large Cell Carcinoma",
			"normal":                                           "Normal",
			"squamous.cell.carcinoma_left.hilum_T1_N2_M0_IIIa": "Squamous Cell Carcinoma",
		},
	}
}

// LoadMetadata reads a YAML metadata file. Fields absent from the file take
// their DefaultMetadata values; class names are only defaulted together with
// the classes.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	def := DefaultMetadata()
	if meta.InputName == "" {
		meta.InputName = def.InputName
	}
	if meta.OutputName == "" {
		meta.OutputName = def.OutputName
	}
	if meta.Layout == "" {
		meta.Layout = def.Layout
	}
	if len(meta.Classes) == 0 {
		meta.Classes, meta.ClassNames = def.Classes, def.ClassNames
	}
	if meta.ImageSize == 0 {
		meta.ImageSize = def.ImageSize
	}
	if len(meta.InputShape) == 0 {
		meta.InputShape = def.InputShape
	}
	if len(meta.OutputShape) == 0 {
		meta.OutputShape = def.OutputShape
	}

	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m Metadata) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("metadata has no classes")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("invalid image size %d", m.ImageSize)
	}
	if m.Layout != LayoutNHWC && m.Layout != LayoutNCHW {
		return fmt.Errorf("unsupported layout %q", m.Layout)
	}
	return nil
}

// DisplayName maps a raw class label to its human-readable name.
func (m Metadata) DisplayName(label string) string {
	if name, ok := m.ClassNames[label]; ok && name != "" {
		return name
	}
	return label
}
