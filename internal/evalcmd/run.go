package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookfinder/internal/eval/metrics"
	"github.com/lehigh-university-libraries/bookfinder/internal/eval/results"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
)

type runOptions struct {
	DatasetPath  string
	SampleSize   int
	Engine       string
	Language     string
	Concurrency  int
	OutputJSON   string
	OutputReport string
	EvalsDir     string
	Download     dataset.DownloadConfig
}

func executeRun(ctx context.Context, resolver *resolve.Resolver, engine string, opts runOptions) (*metrics.AggregateResults, error) {
	slog.Info("Starting evaluation run", "dataset", opts.DatasetPath, "sample", opts.SampleSize, "engine", engine)

	loader, err := dataset.LoadOrDownload(ctx, opts.DatasetPath, opts.Download)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	records, err := loader.LoadSample(opts.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	usable := records[:0]
	for _, r := range records {
		if r.Usable() {
			usable = append(usable, r)
		} else {
			slog.Warn("Skipping record without title or input", "id", r.ID)
		}
	}
	slog.Info("Dataset loaded", "records", len(records), "usable", len(usable))

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	out := make([]metrics.EvaluationResult, len(usable))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, opts.Concurrency)

	for i, record := range usable {
		wg.Add(1)
		go func(idx int, record dataset.Record) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			slog.Info("Processing record", "id", record.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(usable)))
			out[idx] = evaluateRecord(ctx, resolver, record, opts)
		}(i, record)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := metrics.AggregateEvaluationResults(out, engine)
	agg.PrintSummary()

	if opts.OutputJSON != "" {
		if err := agg.SaveToJSON(opts.OutputJSON); err != nil {
			slog.Warn("Failed to save JSON results", "err", err)
		} else {
			fmt.Printf("\nResults saved to: %s\n", opts.OutputJSON)
		}
	}

	if opts.OutputReport != "" {
		if err := agg.SaveDetailedReport(opts.OutputReport); err != nil {
			slog.Warn("Failed to save detailed report", "err", err)
		} else {
			fmt.Printf("Detailed report saved to: %s\n", opts.OutputReport)
		}
	}

	if opts.EvalsDir != "" {
		path, err := results.SaveToYAML(opts.EvalsDir, agg, opts.Language, opts.DatasetPath)
		if err != nil {
			slog.Warn("Failed to save YAML results", "err", err)
		} else {
			fmt.Printf("Evaluation results saved to: %s\n", path)
		}
	}

	return agg, nil
}

// evaluateRecord resolves one record and scores the result against its title.
// Pre-extracted OCR text skips the OCR engine.
func evaluateRecord(ctx context.Context, resolver *resolve.Resolver, record dataset.Record, opts runOptions) metrics.EvaluationResult {
	start := time.Now()
	result := metrics.EvaluationResult{
		ID:     record.ID,
		Title:  record.Title,
		Author: record.Author,
	}

	imageOpts := resolve.ImageOptions{
		Engine:   opts.Engine,
		Language: opts.Language,
		Order:    models.SortNone,
	}

	var (
		res resolve.Resolution
		err error
	)
	switch {
	case record.HasOCRText():
		result.Source = "ocr_text"
		res, err = resolver.FromText(ctx, record.OCRText, imageOpts)
	case record.HasImage():
		result.Source = "image"
		var data []byte
		data, err = os.ReadFile(record.ImagePath)
		if err != nil {
			err = fmt.Errorf("failed to read image: %w", err)
			res.State = resolve.StateFatal
			break
		}
		res, err = resolver.FromImage(ctx, data, imageOpts)
	default:
		err = errors.New("record has neither ocr_text nor image_path")
		res.State = resolve.StateFatal
	}

	result.State = res.State.String()
	result.Query = res.Query
	result.Queries = res.AttemptedQueries()
	result.Attempts = len(res.Attempts)
	result.Found = res.Results.Len()
	result.TitleMatch, result.HitRank = metrics.ScoreResults(record.Title, res.Results.Records())
	result.ProcessingTime = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		slog.Info("Record did not resolve", "id", record.ID, "state", result.State, "err", err)
		return result
	}

	slog.Info("Record resolved",
		"id", record.ID,
		"query", result.Query,
		"attempts", result.Attempts,
		"hit_rank", result.HitRank)
	return result
}
