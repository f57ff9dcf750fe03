package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/bookfinder/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"THE HOBBIT\nJ.R.R. Tolkien"}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL+"/").ExtractText(context.Background(), providers.Config{
		Model:  "llava",
		Prompt: "read it",
		Image:  []byte("cover-bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, "THE HOBBIT\nJ.R.R. Tolkien", text)
	assert.Equal(t, "llava", got["model"])
	assert.Equal(t, "read it", got["prompt"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, []interface{}{base64.StdEncoding.EncodeToString([]byte("cover-bytes"))}, got["images"])
}

func TestExtractTextDefaultModel(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "")
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"x"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ExtractText(context.Background(), providers.Config{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, got["model"])
	assert.NotContains(t, got, "images")
}

func TestExtractTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ExtractText(context.Background(), providers.Config{Model: "nope"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestNewFallsBackToEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	assert.Equal(t, "http://gpu-box:11434", New("").baseURL)

	t.Setenv("OLLAMA_HOST", "")
	assert.Equal(t, DefaultURL, New("").baseURL)
}
