package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
)

const maxPreviewChars = 500

func executeInspect(ctx context.Context, w io.Writer, in io.Reader, datasetPath string, limit int, interactive, showOCR bool) error {
	loader := dataset.NewLoader(datasetPath)

	if limit <= 0 {
		limit = -1
	}
	records, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d records from %s\n", len(records), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(in)

	for i, record := range records {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "RECORD %d/%d\n", i+1, len(records))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintf(w, "ID:         %s\n", record.ID)
		fmt.Fprintf(w, "Title:      %s\n", record.Title)
		fmt.Fprintf(w, "Author:     %s\n", record.Author)
		if record.CoverID > 0 {
			fmt.Fprintf(w, "Cover ID:   %d\n", record.CoverID)
		}
		if record.HasImage() {
			status := "ok"
			if _, err := os.Stat(record.ImagePath); err != nil {
				status = "missing"
			}
			fmt.Fprintf(w, "Image:      %s (%s)\n", record.ImagePath, status)
		}
		if !record.Usable() {
			fmt.Fprintln(w, "Usable:     no (needs a title and ocr_text or image_path)")
		}
		fmt.Fprintln(w)

		if showOCR && record.HasOCRText() {
			printOCRPreview(w, record.OCRText)
		}

		fmt.Fprintln(w)

		if interactive {
			fmt.Fprint(w, "Press Enter to continue to next record (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(w, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(w)
			}
		}
	}

	return nil
}

// printOCRPreview shows the text and the queries the pipeline would try, in order
func printOCRPreview(w io.Writer, text string) {
	display := text
	if len(display) > maxPreviewChars {
		display = display[:maxPreviewChars]
	}

	fmt.Fprintf(w, "OCR Text Length: %d characters\n", len(text))
	fmt.Fprintln(w, "OCR TEXT PREVIEW:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintln(w, display)
	if len(display) < len(text) {
		fmt.Fprintf(w, "\n[... truncated, showing first %d of %d characters ...]\n", maxPreviewChars, len(text))
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))

	fmt.Fprintln(w, "CANDIDATE QUERIES:")
	for _, cand := range resolve.RankCandidates(resolve.CleanLines(text)) {
		if query, ok := resolve.FilterQuery(cand.Text); ok {
			fmt.Fprintf(w, "  %d. %s\n", cand.Rank+1, query)
		} else {
			fmt.Fprintf(w, "  %d. (skipped) %s\n", cand.Rank+1, cand.Text)
		}
	}
}
