package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoader(t *testing.T) {
	path := "./test.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func TestRecordUsable(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected bool
	}{
		{"ocr text", Record{Title: "Dune", OCRText: "DUNE"}, true},
		{"image", Record{Title: "Dune", ImagePath: "dune.jpg"}, true},
		{"blank ocr text", Record{Title: "Dune", OCRText: "  \n "}, false},
		{"no title", Record{OCRText: "DUNE"}, false},
		{"no input", Record{Title: "Dune", CoverID: 12}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Usable(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestLoadJSONLSample(t *testing.T) {
	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "test.jsonl")

	writeFile(t, jsonlPath, `{"id":"1","title":"Dune","author":"Frank Herbert","ocr_text":"DUNE\nFRANK HERBERT"}
{"id":"2","title":"Neuromancer","image_path":"covers/2.jpg"}

{"id":"3","title":"Hyperion","cover_id":240727}
`)

	records, err := NewLoader(jsonlPath).LoadSample(2)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Title != "Dune" || records[0].OCRText != "DUNE\nFRANK HERBERT" {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if want := filepath.Join(tmpDir, "covers", "2.jpg"); records[1].ImagePath != want {
		t.Errorf("Expected image path %s, got %s", want, records[1].ImagePath)
	}
}

func TestLoadJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "test.jsonl")

	writeFile(t, jsonlPath, `{"id":"1","title":"Dune"}
{"id":"2","title":"Neuromancer","image_path":"/abs/2.jpg","cover_id":5}
`)

	records, err := NewLoader(jsonlPath).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].ImagePath != "/abs/2.jpg" {
		t.Errorf("Absolute image path changed: %s", records[1].ImagePath)
	}
	if records[1].CoverID != 5 {
		t.Errorf("Expected cover id 5, got %d", records[1].CoverID)
	}
}

func TestLoadJSONLMalformed(t *testing.T) {
	jsonlPath := filepath.Join(t.TempDir(), "bad.jsonl")
	writeFile(t, jsonlPath, "{\"id\":\"1\"}\nnot json\n")

	if _, err := NewLoader(jsonlPath).Load(); err == nil {
		t.Error("Expected error for malformed line, got nil")
	}
}

func TestLoadWithFilter(t *testing.T) {
	jsonlPath := filepath.Join(t.TempDir(), "test.jsonl")
	writeFile(t, jsonlPath, `{"id":"1","title":"A","cover_id":10}
{"id":"2","title":"B"}
{"id":"3","title":"C","cover_id":30}
`)

	records, err := NewLoader(jsonlPath).LoadWithFilter(func(r *Record) bool { return r.CoverID > 0 })
	if err != nil {
		t.Fatalf("LoadWithFilter failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != "1" || records[1].ID != "3" {
		t.Errorf("Unexpected filtered records: %+v", records)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	records := []Record{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", OCRText: "DUNE", CoverID: 11},
		{ID: "2", Title: "Hyperion", ImagePath: "/covers/2.jpg"},
	}

	for _, name := range []string{"out.jsonl", "out.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Save(path, records); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := NewLoader(path).Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != len(records) {
				t.Fatalf("Expected %d records, got %d", len(records), len(got))
			}
			for i := range records {
				if got[i] != records[i] {
					t.Errorf("Record %d mismatch:\nwant %+v\ngot  %+v", i, records[i], got[i])
				}
			}
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	loader := NewLoader("test.txt")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
	if _, err := loader.LoadSample(10); err == nil {
		t.Error("Expected error for unsupported format in LoadSample, got nil")
	}
	if err := Save(filepath.Join(t.TempDir(), "x.csv"), nil); err == nil {
		t.Error("Expected error for unsupported format in Save, got nil")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	loader := NewLoader("/nonexistent/path/file.jsonl")

	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
	if _, err := NewLoader("/nonexistent/path/file.parquet").LoadSample(10); err == nil {
		t.Error("Expected error for non-existent file in LoadSample, got nil")
	}
}

func TestDownloaderCachesRemoteDataset(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("Authorization") != "Bearer hf_token" {
			t.Errorf("Missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"id":"1","title":"Dune","ocr_text":"DUNE"}` + "\n"))
	}))
	defer srv.Close()

	cfg := DownloadConfig{CacheDir: t.TempDir(), Token: "hf_token"}
	url := srv.URL + "/datasets/covers.jsonl"

	for i := 0; i < 2; i++ {
		loader, err := LoadOrDownload(context.Background(), url, cfg)
		if err != nil {
			t.Fatalf("LoadOrDownload failed: %v", err)
		}
		records, err := loader.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(records) != 1 || records[0].Title != "Dune" {
			t.Errorf("Unexpected records: %+v", records)
		}
	}

	if hits != 1 {
		t.Errorf("Expected one download, got %d", hits)
	}
}

func TestDownloaderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDownloader(DownloadConfig{CacheDir: t.TempDir()})
	if _, err := d.DownloadDataset(context.Background(), srv.URL+"/missing.jsonl"); err == nil {
		t.Error("Expected error for 404, got nil")
	}
}

func TestResolveLocalPath(t *testing.T) {
	d := NewDownloader(DownloadConfig{CacheDir: t.TempDir()})

	got, err := d.Resolve(context.Background(), "./local.jsonl")
	if err != nil || got != "./local.jsonl" {
		t.Errorf("Expected local path unchanged, got %q (%v)", got, err)
	}
}
