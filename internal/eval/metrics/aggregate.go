package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// EvaluationResult is the outcome of resolving one dataset record
type EvaluationResult struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	// Source is "ocr_text" or "image"
	Source string `json:"source"`

	State    string   `json:"state"`
	Query    string   `json:"query,omitempty"`
	Queries  []string `json:"queries,omitempty"`
	Attempts int      `json:"attempts"`
	Found    int      `json:"found"`

	// TitleMatch compares the first returned title with the expected title
	TitleMatch *FieldMatch `json:"title_match,omitempty"`
	// HitRank is the 1-based position of the first returned record whose
	// title reaches HitThreshold, or 0 when none does
	HitRank int `json:"hit_rank"`

	ProcessingTime time.Duration `json:"processing_time"`
	Error          string        `json:"error,omitempty"`
}

// Hit reports whether the expected book appeared anywhere in the results
func (r EvaluationResult) Hit() bool {
	return r.HitRank > 0
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int `json:"total_records"`
	SuccessCount int `json:"success_count"`
	NoMatchCount int `json:"no_match_count"`
	FatalCount   int `json:"fatal_count"`

	HitCount int     `json:"hit_count"`
	Top1Hits int     `json:"top1_hits"`
	HitRate  float64 `json:"hit_rate"`
	Top1Rate float64 `json:"top1_rate"`

	AverageAttempts float64    `json:"average_attempts"`
	TitleAccuracy   FieldStats `json:"title_accuracy"`

	AverageProcessingTime time.Duration `json:"average_processing_time"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`

	Results []EvaluationResult `json:"results"`

	EvaluationDate time.Time `json:"evaluation_date"`
	Engine         string    `json:"engine"`
	SampleSize     int       `json:"sample_size"`
}

// FieldStats contains statistics for one compared field
type FieldStats struct {
	ExactMatches  int       `json:"exact_matches"`
	FuzzyMatches  int       `json:"fuzzy_matches"`
	NoMatches     int       `json:"no_matches"`
	MissingFields int       `json:"missing_fields"`
	AverageScore  float64   `json:"average_score"`
	Scores        []float64 `json:"scores"`
}

// AggregateEvaluationResults aggregates per-record results into run metrics
func AggregateEvaluationResults(results []EvaluationResult, engine string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		Engine:         engine,
		SampleSize:     len(results),
		TitleAccuracy:  FieldStats{Scores: []float64{}},
	}

	var totalDuration time.Duration
	totalAttempts := 0

	for _, result := range results {
		totalDuration += result.ProcessingTime
		totalAttempts += result.Attempts

		switch result.State {
		case "success":
			agg.SuccessCount++
		case "no_match":
			agg.NoMatchCount++
		default:
			agg.FatalCount++
		}

		if result.Hit() {
			agg.HitCount++
			if result.HitRank == 1 {
				agg.Top1Hits++
			}
		}

		if result.TitleMatch != nil {
			aggregateFieldStats(&agg.TitleAccuracy, *result.TitleMatch)
		}
	}

	agg.TitleAccuracy.AverageScore = calculateAverage(agg.TitleAccuracy.Scores)
	agg.TotalProcessingTime = totalDuration

	if agg.TotalRecords > 0 {
		n := float64(agg.TotalRecords)
		agg.HitRate = float64(agg.HitCount) / n
		agg.Top1Rate = float64(agg.Top1Hits) / n
		agg.AverageAttempts = float64(totalAttempts) / n
		agg.AverageProcessingTime = totalDuration / time.Duration(agg.TotalRecords)
	}

	return agg
}

// aggregateFieldStats updates field statistics
func aggregateFieldStats(stats *FieldStats, match FieldMatch) {
	stats.Scores = append(stats.Scores, match.Score)

	switch match.Method {
	case "exact":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium", "substring":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "actual_missing", "expected_missing", "both_missing":
		stats.MissingFields++
	}
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// PrintSummary prints a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary() {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("BOOKFINDER EVALUATION SUMMARY")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Printf("OCR Engine: %s\n", a.Engine)
	fmt.Printf("Sample Size: %d records\n", a.SampleSize)
	fmt.Println()

	fmt.Println("RESOLUTION OUTCOMES")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Success: %d (%.1f%%)\n", a.SuccessCount, percent(a.SuccessCount, a.TotalRecords))
	fmt.Printf("No Match: %d (%.1f%%)\n", a.NoMatchCount, percent(a.NoMatchCount, a.TotalRecords))
	fmt.Printf("Fatal: %d (%.1f%%)\n", a.FatalCount, percent(a.FatalCount, a.TotalRecords))
	fmt.Printf("Average Attempts: %.2f\n", a.AverageAttempts)
	fmt.Printf("Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Printf("Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Println()

	fmt.Println("ACCURACY")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Hit Rate (any position): %.2f%%\n", a.HitRate*100)
	fmt.Printf("Top-1 Rate: %.2f%%\n", a.Top1Rate*100)
	fmt.Printf("\nFirst Title:\n")
	fmt.Printf("  Average Score: %.2f%% (%.3f)\n", a.TitleAccuracy.AverageScore*100, a.TitleAccuracy.AverageScore)
	fmt.Printf("  Exact Matches: %d\n", a.TitleAccuracy.ExactMatches)
	fmt.Printf("  Fuzzy Matches: %d\n", a.TitleAccuracy.FuzzyMatches)
	fmt.Printf("  No Matches: %d\n", a.TitleAccuracy.NoMatches)
	fmt.Println(strings.Repeat("=", 70))
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}

// LoadJSON reads results written by SaveToJSON
func LoadJSON(filepath string) (*AggregateResults, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var agg AggregateResults
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode results JSON: %w", err)
	}
	return &agg, nil
}

// SaveDetailedReport writes one block per record with its queries and score
func (a *AggregateResults) SaveDetailedReport(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "BOOKFINDER EVALUATION DETAILED REPORT\n")
	fmt.Fprintf(file, "Generated: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "OCR Engine: %s\n", a.Engine)
	separator := strings.Repeat("=", 80)
	fmt.Fprintf(file, "%s\n\n", separator)

	dash := strings.Repeat("-", 80)
	for i, result := range a.Results {
		fmt.Fprintf(file, "RECORD %d: %s\n", i+1, result.ID)
		fmt.Fprintf(file, "%s\n", dash)
		fmt.Fprintf(file, "Expected: %s\n", result.Title)
		fmt.Fprintf(file, "Source: %s\n", result.Source)
		fmt.Fprintf(file, "State: %s\n", result.State)
		fmt.Fprintf(file, "Queries: %s\n", strings.Join(result.Queries, " | "))
		fmt.Fprintf(file, "Processing Time: %s\n", result.ProcessingTime)

		if result.Error != "" {
			fmt.Fprintf(file, "ERROR: %s\n", result.Error)
		}
		if result.TitleMatch != nil {
			fmt.Fprintf(file, "First Title: %.2f (%s) - Actual: %s\n",
				result.TitleMatch.Score,
				result.TitleMatch.Method,
				result.TitleMatch.Actual)
		}
		if result.Hit() {
			fmt.Fprintf(file, "Hit at position %d of %d\n", result.HitRank, result.Found)
		}

		fmt.Fprintf(file, "\n%s\n\n", separator)
	}

	return nil
}
