package models

import "time"

// CycleSnapshot is the outcome of one resolution cycle as seen by the render layer
type CycleSnapshot struct {
	SessionID   string     `json:"session_id" yaml:"session_id"`
	CycleID     string     `json:"cycle_id" yaml:"cycle_id"`
	Source      string     `json:"source" yaml:"source"` // "query" or "image"
	Status      string     `json:"status" yaml:"status"`
	Message     string     `json:"message,omitempty" yaml:"message,omitempty"`
	Query       string     `json:"query,omitempty" yaml:"query,omitempty"`
	OCRText     string     `json:"ocr_text,omitempty" yaml:"ocr_text,omitempty"`
	Attempts    []string   `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Books       []BookView `json:"books" yaml:"books"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time  `json:"completed_at" yaml:"completed_at"`
}
