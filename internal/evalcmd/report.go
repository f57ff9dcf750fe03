package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/metrics"
)

func executeReport(w io.Writer, resultsPath, format string) error {
	agg, err := metrics.LoadJSON(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(w, agg)
	case "json":
		return printJSONReport(w, agg)
	case "csv":
		return printCSVReport(w, agg)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, agg *metrics.AggregateResults) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Book Finder Evaluation Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Engine:       %s\n", agg.Engine)
	fmt.Fprintf(w, "Records:      %d\n", agg.TotalRecords)
	fmt.Fprintf(w, "Hit Rate:     %.2f%%\n", agg.HitRate*100)
	fmt.Fprintf(w, "Top-1 Rate:   %.2f%%\n", agg.Top1Rate*100)
	fmt.Fprintf(w, "No Match:     %d\n", agg.NoMatchCount)
	fmt.Fprintf(w, "Fatal:        %d\n", agg.FatalCount)
	fmt.Fprintf(w, "Avg Attempts: %.2f\n", agg.AverageAttempts)

	fmt.Fprintln(w, "\nMisses:")
	fmt.Fprintln(w, "========================================")
	for i, result := range agg.Results {
		if result.Hit() {
			continue
		}
		fmt.Fprintf(w, "\n[%d] %s: %s\n", i+1, result.ID, result.Title)
		fmt.Fprintf(w, "  State:   %s\n", result.State)
		if len(result.Queries) > 0 {
			fmt.Fprintf(w, "  Queries: %s\n", strings.Join(result.Queries, " | "))
		}
		if result.TitleMatch != nil {
			fmt.Fprintf(w, "  First:   %s (%.0f%% similar)\n", truncate(result.TitleMatch.Actual, 60), result.TitleMatch.Score*100)
		}
		if result.Error != "" {
			fmt.Fprintf(w, "  Error:   %s\n", result.Error)
		}
	}

	return nil
}

func printJSONReport(w io.Writer, agg *metrics.AggregateResults) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(agg)
}

func printCSVReport(w io.Writer, agg *metrics.AggregateResults) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Title", "Source", "State", "Attempts", "Query", "First Title", "Title Score", "Hit Rank", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range agg.Results {
		firstTitle, score := "", "0"
		if result.TitleMatch != nil {
			firstTitle = result.TitleMatch.Actual
			score = fmt.Sprintf("%.4f", result.TitleMatch.Score)
		}
		row := []string{
			result.ID,
			result.Title,
			result.Source,
			result.State,
			strconv.Itoa(result.Attempts),
			result.Query,
			firstTitle,
			score,
			strconv.Itoa(result.HitRank),
			result.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
