package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/images"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	var engine, language, sortFlag, output string

	cmd := &cobra.Command{
		Use:   "scan <image file or URL>",
		Short: "Find a book from a photo of its cover",
		Long: `Extracts text from the image, ranks the recognised lines longest first and
tries each one, after removing noise words, as a query until the lookup
service returns books.`,
		Example: `  bookfinder scan cover.jpg
  bookfinder scan --engine ollama --sort newest https://example.org/cover.png
  bookfinder scan -o yaml --language deu umschlag.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			order, err := models.ParseSortOrder(sortFlag, models.SortNone)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			source := args[0]

			var (
				data []byte
				info images.Info
			)
			if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
				data, info, err = svc.Fetcher.FetchImage(ctx, source)
			} else {
				data, err = os.ReadFile(source)
				if err == nil {
					info, err = images.Inspect(data)
				}
			}
			if err != nil {
				return fmt.Errorf("failed to load image %s: %w", source, err)
			}
			slog.Debug("Image loaded", "source", source, "format", info.Format, "width", info.Width, "height", info.Height)

			res, err := svc.Resolver.FromImage(ctx, data, resolve.ImageOptions{
				Engine:   strings.ToLower(engine),
				Language: language,
				Order:    order,
			})
			if res.OCRText != "" {
				slog.Debug("OCR text", "text", res.OCRText)
			}
			if err != nil {
				if queries := res.AttemptedQueries(); len(queries) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Tried: %s\n", strings.Join(queries, " | "))
				}
				return userError(err)
			}

			return writeResults(cmd.OutOrStdout(), output, resultOutput{
				Query:    res.Query,
				Attempts: res.AttemptedQueries(),
				Books:    models.NewBookViews(res.Results, svc.Config.Catalog.CoversURL, svc.Config.Catalog.PlaceholderURL),
			})
		},
	}

	cmd.Flags().StringVarP(&engine, "engine", "e", "", "OCR engine: tesseract, ollama, openai or gemini (defaults to ocr.provider)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "OCR language, e.g. eng or eng+fra (defaults to ocr.language)")
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", string(models.SortNone), "Sort by publish year: newest, oldest or none")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}
