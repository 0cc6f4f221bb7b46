package uploader

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest image accepted for upload, 16 MiB.
const MaxFileSize int64 = 16 * 1024 * 1024

var validTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
}

// SelectedFile is an image chosen for upload.
type SelectedFile struct {
	Name      string
	MediaType string
	Size      int64
	Data      []byte
}

// Validate checks the declared media type and size.
func (f *SelectedFile) Validate() error {
	if _, ok := validTypes[strings.ToLower(f.MediaType)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidType, f.MediaType)
	}
	if f.Size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, f.Size)
	}
	return nil
}

// OpenFile builds a SelectedFile from disk. The media type is derived from the
// extension. Files over MaxFileSize are not read; their Data is nil so that
// validation can still report the size.
func OpenFile(path string) (*SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	file := &SelectedFile{
		Name:      filepath.Base(path),
		MediaType: mediaTypeByName(path),
		Size:      info.Size(),
	}
	if file.Size > MaxFileSize {
		return file, nil
	}

	file.Data, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file.Size = int64(len(file.Data))
	return file, nil
}

func mediaTypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// Preview is the displayable form of a SelectedFile.
type Preview struct {
	Name    string
	Size    int64
	DataURL string
	// Width and Height are zero when the image header cannot be decoded.
	Width  int
	Height int
}

func newPreview(f *SelectedFile) Preview {
	p := Preview{
		Name:    f.Name,
		Size:    f.Size,
		DataURL: fmt.Sprintf("data:%s;base64,%s", f.MediaType, base64.StdEncoding.EncodeToString(f.Data)),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err == nil {
		p.Width, p.Height = cfg.Width, cfg.Height
	}
	return p
}
