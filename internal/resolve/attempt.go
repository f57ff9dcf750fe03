package resolve

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// Lookup is the remote book search service
type Lookup interface {
	Search(ctx context.Context, query, category string) ([]models.BookRecord, error)
}

// Outcome classifies a single lookup attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeEmpty
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Attempt records one query sent to the lookup service and what came back
type Attempt struct {
	Candidate Candidate
	Query     string
	Outcome   Outcome
	Found     int
	Err       error
}

// LoopResult is everything the attempt loop learned in one cycle
type LoopResult struct {
	Attempts []Attempt
	// Skipped holds candidates rejected by FilterQuery; they were never sent
	Skipped []Candidate
	// Query is the filtered query that produced Results
	Query   string
	Results models.ResultSet
}

// AttemptLoop filters candidates in ranked order and sends each surviving
// query to the lookup service, one at a time, stopping at the first query
// that returns any records. Empty results and lookup failures are logged and
// the next candidate is tried. When every candidate is exhausted the error
// is ErrNoMatch. Cancelling ctx stops the loop before the next attempt.
func AttemptLoop(ctx context.Context, lookup Lookup, candidates []Candidate) (LoopResult, error) {
	var result LoopResult

	for _, cand := range candidates {
		query, ok := FilterQuery(cand.Text)
		if !ok {
			slog.Debug("Skipping candidate", "line", cand.Text, "rank", cand.Rank)
			result.Skipped = append(result.Skipped, cand)
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		attempt := try(ctx, lookup, cand, query)
		result.Attempts = append(result.Attempts, attempt.Attempt)

		switch attempt.Outcome {
		case OutcomeSuccess:
			result.Query = query
			result.Results = models.NewResultSet(attempt.records)
			slog.Info("Candidate matched", "query", query, "rank", cand.Rank, "found", attempt.Found, "kept", result.Results.Len())
			return result, nil
		case OutcomeEmpty:
			slog.Info("Candidate returned no books", "query", query, "rank", cand.Rank)
		case OutcomeFailure:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			slog.Warn("Candidate lookup failed", "query", query, "rank", cand.Rank, "err", attempt.Err)
		}
	}

	return result, ErrNoMatch
}

type attemptWithRecords struct {
	Attempt
	records []models.BookRecord
}

func try(ctx context.Context, lookup Lookup, cand Candidate, query string) attemptWithRecords {
	slog.Debug("Trying search", "query", query, "rank", cand.Rank)

	a := attemptWithRecords{Attempt: Attempt{Candidate: cand, Query: query}}
	records, err := lookup.Search(ctx, query, "")
	switch {
	case err != nil:
		a.Outcome = OutcomeFailure
		a.Err = err
	case len(records) == 0:
		a.Outcome = OutcomeEmpty
	default:
		a.Outcome = OutcomeSuccess
		a.Found = len(records)
		a.records = records
	}
	return a
}
