// Package models defines core data structures for chunk records, conversations, and answers.
package models

import "fmt"

// ChunkRecord is one retrievable span of text from a manual page.
// Identity is (Manual, Path, ChunkIndex); records are never mutated after creation.
type ChunkRecord struct {
	Manual     string `json:"manual" db:"manual"`
	Path       string `json:"path" db:"path"`
	ChunkIndex int    `json:"chunk_index" db:"chunk_index"`
	Text       string `json:"text" db:"text"`
}

// Key returns the identity of the record as a single string.
func (r ChunkRecord) Key() string {
	return fmt.Sprintf("%s|%s|%d", r.Manual, r.Path, r.ChunkIndex)
}

// FilterByManual returns the records belonging to manual, preserving order.
func FilterByManual(records []ChunkRecord, manual string) []ChunkRecord {
	out := make([]ChunkRecord, 0)
	for _, r := range records {
		if r.Manual == manual {
			out = append(out, r)
		}
	}
	return out
}

// ManualNames returns the distinct manual names in records in first-seen order.
func ManualNames(records []ChunkRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if !seen[r.Manual] {
			seen[r.Manual] = true
			names = append(names, r.Manual)
		}
	}
	return names
}

// Texts returns the text of each record, in order.
func Texts(records []ChunkRecord) []string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return texts
}
