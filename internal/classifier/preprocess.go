package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Preprocess decodes an image, resizes it to size x size and returns RGB values
// scaled to [0, 1] in the requested tensor layout.
func Preprocess(data []byte, size int, layout string) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image format: %w", err)
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	const channels = 3
	plane := width * height
	out := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb := [channels]float32{
				float32(r) / 65535.0,
				float32(g) / 65535.0,
				float32(b) / 65535.0,
			}

			pixel := y*width + x
			for c, v := range rgb {
				switch layout {
				case LayoutNCHW:
					out[c*plane+pixel] = v
				default:
					out[pixel*channels+c] = v
				}
			}
		}
	}
	return out, nil
}
