package service

const (
	PNG  = "png"
	JPEG = "jpeg"
	JPG  = "jpg"

	otherFormat = "other"
)

// DefaultMaxUploadBytes is the largest accepted image, 16 MiB.
const DefaultMaxUploadBytes int64 = 16 << 20

// confidencePlaces is how many decimals the top confidence keeps.
const confidencePlaces = 2

var allowedFormats = map[string]struct{}{
	PNG:  {},
	JPEG: {},
	JPG:  {},
}
