package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookfinder/internal/images"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

type downloadOptions struct {
	DatasetPath   string
	OutputDir     string
	OutputDataset string
	SampleSize    int
	Size          models.CoverSize
	CoversURL     string
	Download      dataset.DownloadConfig
}

type downloadStats struct {
	Downloaded int
	Existing   int
	Skipped    int
	Errors     int
}

// coverFileName names a record's cover file after its id, or its cover id when it has none
func coverFileName(r dataset.Record) string {
	name := r.ID
	if name == "" {
		name = strconv.Itoa(r.CoverID)
	}
	name = strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == ':' {
			return '_'
		}
		return c
	}, name)
	return name + ".jpg"
}

func executeDownloadCovers(ctx context.Context, fetcher *images.Fetcher, opts downloadOptions) (downloadStats, error) {
	var stats downloadStats
	slog.Info("Starting cover download", "dataset", opts.DatasetPath, "output", opts.OutputDir, "sample", opts.SampleSize)

	loader, err := dataset.LoadOrDownload(ctx, opts.DatasetPath, opts.Download)
	if err != nil {
		return stats, fmt.Errorf("failed to load dataset: %w", err)
	}
	records, err := loader.LoadSample(opts.SampleSize)
	if err != nil {
		return stats, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Loaded dataset records", "count", len(records))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		r := &records[i]
		if r.CoverID <= 0 {
			stats.Skipped++
			continue
		}

		coverPath := filepath.Join(opts.OutputDir, coverFileName(*r))
		if _, err := os.Stat(coverPath); err == nil {
			stats.Existing++
		} else {
			err := fetcher.DownloadCover(ctx, opts.CoversURL, r.CoverID, opts.Size, coverPath)
			switch {
			case errors.Is(err, images.ErrNoCover):
				slog.Warn("No cover available", "id", r.ID, "cover_id", r.CoverID)
				stats.Skipped++
				continue
			case err != nil:
				slog.Warn("Failed to download cover", "id", r.ID, "cover_id", r.CoverID, "err", err)
				stats.Errors++
				continue
			}
			stats.Downloaded++
		}

		// pre-extracted text would bypass OCR of the new image
		r.ImagePath = coverPath
		r.OCRText = ""
	}

	if opts.OutputDataset != "" {
		datasetDir := filepath.Dir(opts.OutputDataset)
		for i := range records {
			if records[i].HasImage() {
				records[i].ImagePath = relativeTo(datasetDir, records[i].ImagePath)
			}
		}
		if err := dataset.Save(opts.OutputDataset, records); err != nil {
			return stats, err
		}
		slog.Info("Saved image dataset", "path", opts.OutputDataset, "records", len(records))
	}

	return stats, nil
}

func relativeTo(dir, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(absDir, abs)
	if err != nil {
		return abs
	}
	return rel
}
