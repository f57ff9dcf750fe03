package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Engine      string `yaml:"engine"`
	Language    string `yaml:"language"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Timestamp   string `yaml:"timestamp"`
}

// EvalSummary holds the run-level metrics
type EvalSummary struct {
	HitRate         float64 `yaml:"hitrate"`
	Top1Rate        float64 `yaml:"top1rate"`
	Success         int     `yaml:"success"`
	NoMatch         int     `yaml:"nomatch"`
	Fatal           int     `yaml:"fatal"`
	AverageAttempts float64 `yaml:"averageattempts"`
	AverageTitle    float64 `yaml:"averagetitlescore"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier string   `yaml:"identifier"`
	Title      string   `yaml:"title"`
	Author     string   `yaml:"author,omitempty"`
	Source     string   `yaml:"source"`
	State      string   `yaml:"state"`
	Queries    []string `yaml:"queries,omitempty"`
	Query      string   `yaml:"query,omitempty"`
	FirstTitle string   `yaml:"firsttitle,omitempty"`
	TitleScore float64  `yaml:"titlescore"`
	HitRank    int      `yaml:"hitrank"`
	Error      string   `yaml:"error,omitempty"`
}

// EvalSpec represents the complete evaluation file
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// BuildSpec converts aggregate metrics into the YAML document layout
func BuildSpec(agg *metrics.AggregateResults, language, datasetPath string) EvalSpec {
	spec := EvalSpec{
		Config: EvalConfig{
			Engine:      agg.Engine,
			Language:    language,
			DatasetPath: datasetPath,
			SampleSize:  agg.SampleSize,
			Timestamp:   agg.EvaluationDate.Format(time.RFC3339),
		},
		Summary: EvalSummary{
			HitRate:         agg.HitRate,
			Top1Rate:        agg.Top1Rate,
			Success:         agg.SuccessCount,
			NoMatch:         agg.NoMatchCount,
			Fatal:           agg.FatalCount,
			AverageAttempts: agg.AverageAttempts,
			AverageTitle:    agg.TitleAccuracy.AverageScore,
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}

	for _, r := range agg.Results {
		evalResult := EvalResult{
			Identifier: r.ID,
			Title:      r.Title,
			Author:     r.Author,
			Source:     r.Source,
			State:      r.State,
			Queries:    r.Queries,
			Query:      r.Query,
			HitRank:    r.HitRank,
			Error:      r.Error,
		}
		if r.TitleMatch != nil {
			evalResult.FirstTitle = r.TitleMatch.Actual
			evalResult.TitleScore = r.TitleMatch.Score
		}
		spec.Results = append(spec.Results, evalResult)
	}

	return spec
}

// SaveToYAML writes results to <dir>/<engine>-<timestamp>.yaml and returns the path
func SaveToYAML(dir string, agg *metrics.AggregateResults, language, datasetPath string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	spec := BuildSpec(agg, language, datasetPath)

	engine := strings.NewReplacer("/", "_", ":", "_").Replace(agg.Engine)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", engine, agg.EvaluationDate.Format("2006-01-02_15-04-05")))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
