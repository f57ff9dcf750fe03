package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleResults() []EvaluationResult {
	return []EvaluationResult{
		{
			ID:             "1",
			Title:          "The Hobbit",
			Source:         "ocr_text",
			State:          "success",
			Query:          "THE HOBBIT",
			Queries:        []string{"THE HOBBIT"},
			Attempts:       1,
			Found:          30,
			TitleMatch:     &FieldMatch{Expected: "The Hobbit", Actual: "The Hobbit", Score: 1.0, Method: "exact"},
			HitRank:        1,
			ProcessingTime: 2 * time.Second,
		},
		{
			ID:             "2",
			Title:          "Dune",
			Source:         "image",
			State:          "success",
			Query:          "Frank Herbert",
			Queries:        []string{"DUNE MESSIAH CHILDREN", "Frank Herbert"},
			Attempts:       2,
			Found:          12,
			TitleMatch:     &FieldMatch{Expected: "Dune", Actual: "Children of Dune", Score: 0.4, Method: "no_match"},
			HitRank:        3,
			ProcessingTime: 4 * time.Second,
		},
		{
			ID:             "3",
			Title:          "Hyperion",
			Source:         "image",
			State:          "no_match",
			Queries:        []string{"HYPERON", "SIMMONS"},
			Attempts:       2,
			ProcessingTime: 1 * time.Second,
			Error:          "No books matched the scanned text. Try another photo.",
		},
		{
			ID:             "4",
			Title:          "Neuromancer",
			Source:         "image",
			State:          "fatal",
			ProcessingTime: 1 * time.Second,
			Error:          "failed to read image",
		},
	}
}

func TestAggregateEvaluationResults(t *testing.T) {
	agg := AggregateEvaluationResults(sampleResults(), "tesseract")

	if agg.TotalRecords != 4 {
		t.Errorf("Expected TotalRecords=4, got %d", agg.TotalRecords)
	}
	if agg.SuccessCount != 2 {
		t.Errorf("Expected SuccessCount=2, got %d", agg.SuccessCount)
	}
	if agg.NoMatchCount != 1 {
		t.Errorf("Expected NoMatchCount=1, got %d", agg.NoMatchCount)
	}
	if agg.FatalCount != 1 {
		t.Errorf("Expected FatalCount=1, got %d", agg.FatalCount)
	}
	if agg.Engine != "tesseract" {
		t.Errorf("Expected Engine=tesseract, got %s", agg.Engine)
	}

	if agg.HitCount != 2 || agg.Top1Hits != 1 {
		t.Errorf("Expected 2 hits and 1 top-1 hit, got %d and %d", agg.HitCount, agg.Top1Hits)
	}
	if agg.HitRate != 0.5 {
		t.Errorf("Expected HitRate=0.5, got %.2f", agg.HitRate)
	}
	if agg.Top1Rate != 0.25 {
		t.Errorf("Expected Top1Rate=0.25, got %.2f", agg.Top1Rate)
	}
	if agg.AverageAttempts != 1.25 {
		t.Errorf("Expected AverageAttempts=1.25, got %.2f", agg.AverageAttempts)
	}

	if agg.TitleAccuracy.ExactMatches != 1 || agg.TitleAccuracy.NoMatches != 1 {
		t.Errorf("Unexpected title stats: %+v", agg.TitleAccuracy)
	}
	if diff := agg.TitleAccuracy.AverageScore - 0.7; diff > 0.001 || diff < -0.001 {
		t.Errorf("Expected TitleAccuracy.AverageScore=0.70, got %.2f", agg.TitleAccuracy.AverageScore)
	}

	if agg.TotalProcessingTime != 8*time.Second {
		t.Errorf("Expected TotalProcessingTime=8s, got %s", agg.TotalProcessingTime)
	}
	if agg.AverageProcessingTime != 2*time.Second {
		t.Errorf("Expected AverageProcessingTime=2s, got %s", agg.AverageProcessingTime)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := AggregateEvaluationResults(nil, "ollama")

	if agg.TotalRecords != 0 || agg.HitRate != 0 || agg.AverageAttempts != 0 {
		t.Errorf("Expected zero metrics for empty run, got %+v", agg)
	}
}

func TestCalculateAverage(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{
			name:     "normal scores",
			scores:   []float64{0.5, 1.0},
			expected: 0.75,
		},
		{
			name:     "empty scores",
			scores:   []float64{},
			expected: 0.0,
		},
		{
			name:     "single score",
			scores:   []float64{0.75},
			expected: 0.75,
		},
		{
			name:     "zeros",
			scores:   []float64{0.0, 0.0, 0.0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateAverage(tt.scores)
			if result != tt.expected {
				t.Errorf("calculateAverage(%v) = %.2f, want %.2f",
					tt.scores, result, tt.expected)
			}
		})
	}
}

func TestAggregateFieldStats(t *testing.T) {
	stats := FieldStats{
		Scores: []float64{},
	}

	aggregateFieldStats(&stats, FieldMatch{Score: 1.0, Method: "exact"})
	if stats.ExactMatches != 1 {
		t.Errorf("Expected ExactMatches=1, got %d", stats.ExactMatches)
	}
	if len(stats.Scores) != 1 {
		t.Errorf("Expected 1 score, got %d", len(stats.Scores))
	}

	aggregateFieldStats(&stats, FieldMatch{Score: 0.8, Method: "substring"})
	if stats.FuzzyMatches != 1 {
		t.Errorf("Expected FuzzyMatches=1, got %d", stats.FuzzyMatches)
	}

	aggregateFieldStats(&stats, FieldMatch{Score: 0.0, Method: "no_match"})
	if stats.NoMatches != 1 {
		t.Errorf("Expected NoMatches=1, got %d", stats.NoMatches)
	}

	aggregateFieldStats(&stats, FieldMatch{Score: 0.0, Method: "actual_missing"})
	if stats.MissingFields != 1 {
		t.Errorf("Expected MissingFields=1, got %d", stats.MissingFields)
	}
}

func TestSaveToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "test_results.json")

	agg := AggregateEvaluationResults(sampleResults(), "tesseract")
	if err := agg.SaveToJSON(jsonPath); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	content, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON file: %v", err)
	}

	var decoded AggregateResults
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}
	if decoded.HitCount != 2 || len(decoded.Results) != 4 {
		t.Errorf("Unexpected decoded results: hits=%d results=%d", decoded.HitCount, len(decoded.Results))
	}

	loaded, err := LoadJSON(jsonPath)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if loaded.Results[1].HitRank != 3 || loaded.Results[1].TitleMatch.Actual != "Children of Dune" {
		t.Errorf("Unexpected loaded result: %+v", loaded.Results[1])
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing results file")
	}
}

func TestSaveDetailedReport(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "test_report.txt")

	agg := AggregateEvaluationResults(sampleResults(), "tesseract")
	if err := agg.SaveDetailedReport(reportPath); err != nil {
		t.Fatalf("SaveDetailedReport failed: %v", err)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}
	contentStr := string(content)

	for _, want := range []string{
		"BOOKFINDER EVALUATION DETAILED REPORT",
		"RECORD 1: 1",
		"Expected: The Hobbit",
		"Queries: DUNE MESSIAH CHILDREN | Frank Herbert",
		"Hit at position 3 of 12",
		"ERROR: failed to read image",
	} {
		if !strings.Contains(contentStr, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}
