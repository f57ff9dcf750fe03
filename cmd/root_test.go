package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "tolkien":
			_, _ = w.Write([]byte(`{"numFound":2,"docs":[
				{"key":"/works/OL1W","title":"The Hobbit","author_name":["J.R.R. Tolkien"],"first_publish_year":1937,"cover_i":10},
				{"key":"/works/OL2W","title":"The Silmarillion","author_name":["J.R.R. Tolkien"],"first_publish_year":1977}
			]}`))
		default:
			_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	srv := catalogServer(t)
	t.Setenv("BOOKFINDER_CATALOG_BASE_URL", srv.URL)
	t.Setenv("BOOKFINDER_CATALOG_MAX_RETRIES", "0")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchJSON(t *testing.T) {
	out, err := runRoot(t, "search", "-o", "json", "tolkien")
	require.NoError(t, err)

	var got resultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "tolkien", got.Query)
	require.Len(t, got.Books, 2)
	// newest first by default
	assert.Equal(t, "The Silmarillion", got.Books[0].Title)
	assert.Equal(t, "The Hobbit", got.Books[1].Title)
	assert.Contains(t, got.Books[1].CoverURL, "/b/id/10-M.jpg")
}

func TestSearchTable(t *testing.T) {
	out, err := runRoot(t, "search", "--sort", "oldest", "tolkien")
	require.NoError(t, err)
	assert.Contains(t, out, "Query: tolkien (2 books)")
	assert.Contains(t, out, "TITLE")
	assert.Regexp(t, `1\s+The Hobbit\s+J\.R\.R\. Tolkien\s+1937`, out)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no results", []string{"search", "nothing here"}, "No books found."},
		{"blank query", []string{"search", "  "}, "Enter a title or author to search."},
		{"bad output", []string{"search", "-o", "xml", "tolkien"}, "invalid --output"},
		{"bad sort", []string{"search", "--sort", "sideways", "tolkien"}, "sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScanMissingFile(t *testing.T) {
	_, err := runRoot(t, "scan", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load image")
}
