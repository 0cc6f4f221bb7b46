package uploader

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// PredictionResult is a successful answer from the prediction endpoint.
// Confidence and AllPredictions are percentages in [0, 100].
type PredictionResult struct {
	Prediction     string
	Confidence     float64
	AllPredictions map[string]float64
}

type Entry struct {
	Label      string
	Percentage float64
}

type RenderedEntry struct {
	Label      string
	Percentage string
}

// Rendering is what the view displays for a PredictionResult.
type Rendering struct {
	Label      string
	Confidence string
	// Progress is the confidence bar width in percent, clamped to [0, 100].
	Progress float64
	Entries  []RenderedEntry
}

// SortPredictions orders the distribution by descending percentage. Equal
// percentages are ordered by label.
func SortPredictions(all map[string]float64) []Entry {
	entries := make([]Entry, 0, len(all))
	for label, pct := range all {
		entries = append(entries, Entry{Label: label, Percentage: pct})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

func Render(r *PredictionResult) Rendering {
	sorted := SortPredictions(r.AllPredictions)
	entries := make([]RenderedEntry, len(sorted))
	for i, e := range sorted {
		entries[i] = RenderedEntry{
			Label:      e.Label,
			Percentage: FormatPercentage(e.Percentage),
		}
	}

	return Rendering{
		Label:      r.Prediction,
		Confidence: FormatConfidence(r.Confidence),
		Progress:   math.Max(0, math.Min(100, r.Confidence)),
		Entries:    entries,
	}
}

// FormatPercentage always keeps two decimals, rounding halves away from zero:
// 0.125 -> "0.13%", 27.5 -> "27.50%".
func FormatPercentage(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(2) + "%"
}

// FormatConfidence rounds to two decimals, half away from zero, and drops
// trailing zeros: 72.5 -> "72.5%", 73 -> "73%", 72.456 -> "72.46%".
func FormatConfidence(confidence float64) string {
	return decimal.NewFromFloat(confidence).Round(2).String() + "%"
}
