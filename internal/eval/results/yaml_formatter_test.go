package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveToYAML(t *testing.T) {
	agg := metrics.AggregateEvaluationResults([]metrics.EvaluationResult{
		{
			ID:         "1",
			Title:      "The Hobbit",
			Source:     "ocr_text",
			State:      "success",
			Query:      "THE HOBBIT",
			Queries:    []string{"THE HOBBIT"},
			Attempts:   1,
			TitleMatch: &metrics.FieldMatch{Actual: "The Hobbit", Score: 1, Method: "exact"},
			HitRank:    1,
		},
		{
			ID:     "2",
			Title:  "Dune",
			Source: "image",
			State:  "fatal",
			Error:  "ocr failed",
		},
	}, "ollama/mistral:7b")
	agg.EvaluationDate = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	dir := filepath.Join(t.TempDir(), "evals")
	path, err := SaveToYAML(dir, agg, "eng", "covers.jsonl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ollama_mistral_7b-2025-03-01_10-30-00.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var spec EvalSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))

	assert.Equal(t, "ollama/mistral:7b", spec.Config.Engine)
	assert.Equal(t, "eng", spec.Config.Language)
	assert.Equal(t, "covers.jsonl", spec.Config.DatasetPath)
	assert.Equal(t, 2, spec.Config.SampleSize)
	assert.Equal(t, 0.5, spec.Summary.HitRate)
	assert.Equal(t, 1, spec.Summary.Fatal)

	require.Len(t, spec.Results, 2)
	assert.Equal(t, "The Hobbit", spec.Results[0].FirstTitle)
	assert.Equal(t, 1, spec.Results[0].HitRank)
	assert.Equal(t, "ocr failed", spec.Results[1].Error)
	assert.Empty(t, spec.Results[1].FirstTitle)
}
