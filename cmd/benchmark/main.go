package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kdduha/lungscan/internal/uploader"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var formatFiles = []string{"png", "jpg", "jpeg"}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "benchmark",
		Usage: "send every image under a data directory to a lungscan server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "prediction server base URL",
				Value: "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "directory with one sub-directory per image format",
				Value: "data",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout",
				Value: 2 * time.Minute,
			},
		},
		Action: bench,
	}
}

func bench(c *cli.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	client := uploader.NewClient(c.String("endpoint"), &http.Client{Timeout: c.Duration("timeout")}, logger)

	var results []BenchResult
	for _, formatFile := range formatFiles {
		dataPath := filepath.Join(c.String("data"), formatFile)

		scans, err := os.ReadDir(dataPath)
		if err != nil {
			logger.Warn().Err(err).Str("dir", dataPath).Msg("skipping format")
			continue
		}

		for _, scan := range scans {
			if scan.IsDir() {
				continue
			}
			res := benchmarkScan(c.Context, client, filepath.Join(dataPath, scan.Name()))

			if res.Err != nil {
				logger.Error().Err(res.Err).Msg("prediction failed")
			} else {
				logger.Info().
					Str("file", res.File).
					Str("prediction", res.Prediction).
					Dur("duration", res.Duration).
					Msg("prediction ok")
			}

			results = append(results, res)
		}
	}

	printMarkdown(results)
	return nil
}

func benchmarkScan(ctx context.Context, client *uploader.Client, filePath string) BenchResult {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")

	file, err := uploader.OpenFile(filePath)
	if err != nil {
		return BenchResult{File: filePath, Format: format, Err: err}
	}
	if err := file.Validate(); err != nil {
		return BenchResult{File: filePath, Format: format, Err: err, Size: file.Size}
	}

	start := time.Now()
	res, err := client.Predict(ctx, file)

	result := BenchResult{
		File:     filepath.Base(filePath),
		Format:   format,
		Duration: time.Since(start),
		Err:      err,
		Size:     file.Size,
	}
	if err != nil {
		result.Err = fmt.Errorf("%s: %s", result.File, uploader.Message(err))
		return result
	}
	result.Prediction = res.Prediction
	return result
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		a := m[r.Format]
		if r.Err != nil {
			a.Failed++
			m[r.Format] = a
			continue
		}
		a.Count++
		a.TotalBytes += r.Size
		a.Total += r.Duration
		m[r.Format] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Println("\n## Benchmark Results")
	fmt.Println()
	fmt.Println("| Format | Requests | Failed | Avg Time | Total Time | Avg File Size |")
	fmt.Println("|--------|----------|--------|----------|------------|---------------|")

	agg := aggregate(results)
	formats := make([]string, 0, len(agg))
	for format := range agg {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	var (
		totalCount    int
		totalFailed   int
		totalDuration time.Duration
		totalBytes    int64
	)

	for _, format := range formats {
		a := agg[format]
		totalFailed += a.Failed
		if a.Count == 0 {
			fmt.Printf("| %s | 0 | %d | - | - | - |\n", format, a.Failed)
			continue
		}
		avg := a.Total / time.Duration(a.Count)
		avgSize := a.TotalBytes / int64(a.Count)
		fmt.Printf("| %s | %d | %d | %v | %v | %s |\n",
			format,
			a.Count,
			a.Failed,
			avg.Round(time.Millisecond),
			a.Total.Round(time.Millisecond),
			humanBytes(avgSize),
		)
		totalCount += a.Count
		totalDuration += a.Total
		totalBytes += a.TotalBytes
	}

	if totalCount > 0 {
		mean := totalDuration / time.Duration(totalCount)
		avgSize := totalBytes / int64(totalCount)
		fmt.Printf("| **ALL** | %d | %d | %v | %v | %s |\n",
			totalCount,
			totalFailed,
			mean.Round(time.Millisecond),
			totalDuration.Round(time.Millisecond),
			humanBytes(avgSize),
		)
	}
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
