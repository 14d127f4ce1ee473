package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message is one compiler diagnostic.
type Message struct {
	Text     string `json:"text"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	LineText string `json:"lineText,omitempty"`
}

func (m Message) String() string {
	if m.File == "" {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// Result is the outcome of one compilation.
type Result struct {
	Errors      []Message     `json:"errors"`
	Warnings    []Message     `json:"warnings"`
	OutputFiles []string      `json:"outputFiles,omitempty"`
	Duration    time.Duration `json:"-"`
}

// HasErrors reports whether compilation produced errors.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// HasWarnings reports whether compilation produced warnings.
func (r *Result) HasWarnings() bool {
	return r != nil && len(r.Warnings) > 0
}

// stats is the JSON shape of a Result.
type stats struct {
	Errors      []Message `json:"errors"`
	Warnings    []Message `json:"warnings"`
	OutputFiles []string  `json:"outputFiles,omitempty"`
	DurationMS  int64     `json:"time"`
}

// ToJSON returns the result as a JSON stats document.
func (r *Result) ToJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	s := stats{
		Errors:      r.Errors,
		Warnings:    r.Warnings,
		OutputFiles: r.OutputFiles,
		DurationMS:  r.Duration.Milliseconds(),
	}
	if s.Errors == nil {
		s.Errors = []Message{}
	}
	if s.Warnings == nil {
		s.Warnings = []Message{}
	}
	return json.Marshal(s)
}

// ErrorSummary joins all error messages, one per line.
func (r *Result) ErrorSummary() string {
	if r == nil {
		return ""
	}
	lines := make([]string, 0, len(r.Errors))
	for _, m := range r.Errors {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}
