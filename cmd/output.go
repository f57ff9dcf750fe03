package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"gopkg.in/yaml.v3"
)

// resultOutput is what search and scan print
type resultOutput struct {
	Query    string            `json:"query" yaml:"query"`
	Attempts []string          `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Books    []models.BookView `json:"books" yaml:"books"`
}

var outputFormats = []string{"table", "json", "yaml"}

func validOutput(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid --output %q (must be %s)", format, strings.Join(outputFormats, ", "))
}

func writeResults(w io.Writer, format string, out resultOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTable(w, out)
	}
}

func writeTable(w io.Writer, out resultOutput) error {
	if len(out.Attempts) > 1 {
		fmt.Fprintf(w, "Tried: %s\n", strings.Join(out.Attempts, " | "))
	}
	fmt.Fprintf(w, "Query: %s (%d books)\n\n", out.Query, len(out.Books))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tAUTHORS\tYEAR\tKEY")
	for i, b := range out.Books {
		year := ""
		if b.FirstPublishYear != 0 {
			year = fmt.Sprintf("%d", b.FirstPublishYear)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, b.Title, b.AuthorLine, year, b.Key)
	}
	return tw.Flush()
}
