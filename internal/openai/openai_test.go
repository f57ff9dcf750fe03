package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookfinder/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func TestExtractText(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"DUNE\nFrank Herbert"}}]}`))
	}))
	defer srv.Close()

	text, err := New("sk-test").WithEndpoint(srv.URL).ExtractText(context.Background(), providers.Config{
		Model:    "gpt-4o-mini",
		Prompt:   "transcribe",
		Image:    []byte{0xff, 0xd8, 0xff},
		MIMEType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, "DUNE\nFrank Herbert", text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "transcribe", got.Messages[0].Content[0].Text)
	assert.Equal(t, "image_url", got.Messages[0].Content[1].Type)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestExtractTextSniffsMIMEType(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	png := []byte("\x89PNG\r\n\x1a\n0000")
	_, err := New("sk-test").WithEndpoint(srv.URL).ExtractText(context.Background(), providers.Config{Image: png})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestExtractTextErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := New("").ExtractText(context.Background(), providers.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := New("sk-test").WithEndpoint(srv.URL).ExtractText(context.Background(), providers.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := New("sk-test").WithEndpoint(srv.URL).ExtractText(context.Background(), providers.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}
