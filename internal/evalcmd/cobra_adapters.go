package evalcmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/service"
	"github.com/spf13/cobra"
)

// ServiceFunc returns the configured application service. It is called once
// the root command has loaded configuration.
type ServiceFunc func() (*service.Service, error)

// NewRunCmd creates the run command
func NewRunCmd(svcFn ServiceFunc) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve every dataset record and score the results",
		Long: `Run the query resolution pipeline over a labelled dataset.

Records with ocr_text are resolved from that text directly; records with an
image_path are run through the selected OCR engine first. The first returned
title is compared with the expected title and the run reports hit rate,
no-match and fatal counts and the average number of lookup attempts.

The dataset may be a local .jsonl or .parquet file or an http(s) URL, which
is downloaded once into the cache directory.`,
		Example: `  # Evaluate 20 records with the default OCR engine
  bookfinder eval run --dataset ./covers.jsonl --sample 20

  # Evaluate cover images with Ollama, four at a time
  bookfinder eval run --dataset ./covers-images.parquet --engine ollama --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := svcFn()
			if err != nil {
				return err
			}
			if opts.Engine == "" {
				opts.Engine = svc.OCR.Default()
			}
			if opts.Language == "" {
				opts.Language = svc.Config.OCR.Language
			}
			_, err = executeRun(cmd.Context(), svc.Resolver, opts.Engine, opts)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path or URL of a .jsonl or .parquet dataset (required)")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 10, "Number of records to evaluate (-1 for all)")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "OCR engine for image records (defaults to ocr.provider)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "OCR language (defaults to ocr.language)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 1, "Records resolved in parallel")
	cmd.Flags().StringVar(&opts.OutputJSON, "output-json", "eval_results.json", "Path to output JSON results file")
	cmd.Flags().StringVar(&opts.OutputReport, "output-report", "eval_report.txt", "Path to output detailed report file")
	cmd.Flags().StringVar(&opts.EvalsDir, "evals-dir", "evals", "Directory for YAML run summaries")
	addDownloadFlags(cmd, &opts.Download)

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewDownloadCoversCmd creates the download-covers command
func NewDownloadCoversCmd(svcFn ServiceFunc) *cobra.Command {
	var opts downloadOptions
	var size string

	cmd := &cobra.Command{
		Use:   "download-covers",
		Short: "Download cover images for dataset records with a cover_id",
		Long: `Download Open Library cover images for every dataset record that carries a
cover_id and write a new dataset pointing at the downloaded files.

Records whose cover is missing on the covers service are left without an
image. Pre-extracted ocr_text is dropped from records that gain an image so
that "eval run" exercises OCR on them.`,
		Example: `  # Download large covers for the first 50 records
  bookfinder eval download-covers --dataset ./covers.jsonl --sample 50 --size L

  # Write the image dataset as parquet
  bookfinder eval download-covers --dataset ./covers.jsonl --output-dataset ./covers-images.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := svcFn()
			if err != nil {
				return err
			}

			opts.Size = models.CoverSize(strings.ToUpper(size))
			switch opts.Size {
			case models.CoverSmall, models.CoverMedium, models.CoverLarge:
			default:
				return fmt.Errorf("invalid --size %q (must be S, M or L)", size)
			}
			opts.CoversURL = svc.Config.Catalog.CoversURL

			stats, err := executeDownloadCovers(cmd.Context(), svc.Fetcher, opts)
			if err != nil {
				return err
			}

			fmt.Printf("\nCover download complete!\n")
			fmt.Printf("  Downloaded: %d\n", stats.Downloaded)
			fmt.Printf("  Already present: %d\n", stats.Existing)
			fmt.Printf("  Skipped (no cover_id or no cover): %d\n", stats.Skipped)
			fmt.Printf("  Errors: %d\n", stats.Errors)
			fmt.Printf("  Output location: %s\n", opts.OutputDir)
			if opts.OutputDataset != "" {
				fmt.Printf("\nNext steps:\n")
				fmt.Printf("  bookfinder eval run --dataset %s\n", opts.OutputDataset)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path or URL of a .jsonl or .parquet dataset (required)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "./covers", "Output directory for downloaded covers")
	cmd.Flags().StringVar(&opts.OutputDataset, "output-dataset", "./covers-images.jsonl", "Dataset file to write with image paths (empty to skip)")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 10, "Number of records to process (-1 for all)")
	cmd.Flags().StringVar(&size, "size", "L", "Cover size: S, M or L")
	addDownloadFlags(cmd, &opts.Download)

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var showOCR bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset records and the queries their OCR text produces",
		Example: `  # Inspect first 5 records interactively
  bookfinder eval inspect --dataset ./covers.jsonl --limit 5 --interactive

  # Inspect all records (no limit)
  bookfinder eval inspect --dataset ./covers.jsonl --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return executeInspect(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), datasetPath, limit, interactive, showOCR)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet or jsonl dataset file (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showOCR, "ocr", true, "Show OCR text and candidate queries")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report from a saved eval run",
		Example: `  bookfinder eval report --results eval_results.json
  bookfinder eval report --results eval_results.json --format csv > results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "eval_results.json", "JSON results written by eval run")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or csv")
	return cmd
}

func addDownloadFlags(cmd *cobra.Command, cfg *dataset.DownloadConfig) {
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", dataset.DefaultCacheDir, "Cache directory for datasets given as URLs")
	cmd.Flags().BoolVar(&cfg.ForceDownload, "force-download", false, "Download remote datasets even when cached")
	cmd.Flags().StringVar(&cfg.Token, "hf-token", os.Getenv("HF_TOKEN"), "Bearer token for private dataset URLs")
}

