// Package console renders the upload controller on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kdduha/lungscan/internal/uploader"
)

const barWidth = 40

// View writes controller state as plain text. Error messages are printed
// once; HideError only updates ErrorVisible since a terminal line cannot be
// taken back.
type View struct {
	mu           sync.Mutex
	out          io.Writer
	errorVisible bool
}

func NewView(out io.Writer) *View {
	return &View{out: out}
}

func (v *View) ShowIdle() {
	v.printf("Select a PNG or JPEG image to classify.\n")
}

func (v *View) ShowPreview(p uploader.Preview) {
	v.printf("Selected %s\n", describe(p))
}

func (v *View) ShowLoading() {
	v.printf("Analyzing image...\n")
}

func (v *View) ShowResults(p uploader.Preview, r uploader.Rendering) {
	var b strings.Builder

	fmt.Fprintf(&b, "\nResults for %s\n", p.Name)
	fmt.Fprintf(&b, "Prediction: %s  [%s]\n", r.Label, r.Confidence)
	fmt.Fprintf(&b, "%s\n\n", bar(r.Progress, r.Confidence))

	width := 0
	for _, e := range r.Entries {
		width = max(width, len(e.Label))
	}
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %-*s  %8s\n", width, e.Label, e.Percentage)
	}

	v.printf("%s\n", b.String())
}

func (v *View) ShowError(message string) {
	v.mu.Lock()
	v.errorVisible = true
	v.mu.Unlock()
	v.printf("Error: %s\n", message)
}

func (v *View) HideError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errorVisible = false
}

func (v *View) ErrorVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errorVisible
}

func (v *View) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func describe(p uploader.Preview) string {
	if p.Width > 0 && p.Height > 0 {
		return fmt.Sprintf("%s (%dx%d, %s)", p.Name, p.Width, p.Height, humanBytes(p.Size))
	}
	return fmt.Sprintf("%s (%s)", p.Name, humanBytes(p.Size))
}

func bar(progress float64, label string) string {
	filled := int(progress / 100 * barWidth)
	filled = min(max(filled, 0), barWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "] " + label
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
