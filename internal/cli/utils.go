// Package cli provides output helpers for the tebiki command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tebiki/internal/indexer"
	"github.com/hyperjump/tebiki/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCitations writes the pages backing answer. Fallback answers list no pages.
func WriteCitations(w io.Writer, answer *models.Answer) {
	if !answer.HasPages() {
		return
	}
	fmt.Fprintln(w, "\nRelevant pages:")
	for _, c := range answer.Citations {
		fmt.Fprintf(w, "  - %s\n", c)
	}
}

// WriteAnswer writes a complete answer in the given format.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		out := struct {
			Answer    string   `json:"answer"`
			Citations []string `json:"citations"`
			Fallback  bool     `json:"fallback"`
		}{Answer: answer.Visible, Citations: []string{}, Fallback: answer.Fallback}
		if answer.HasPages() {
			out.Citations = answer.Citations
		}
		return writeJSON(w, out)
	}
	fmt.Fprintln(w, answer.Visible)
	WriteCitations(w, answer)
	return nil
}

// WriteContext writes the retrieved chunks, nearest first, each shortened to maxWords.
func WriteContext(w io.Writer, chunks []models.ChunkRecord, maxWords int) {
	for i, c := range chunks {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %s (chunk %d)\n", i+1, c.Path, c.ChunkIndex)
		fmt.Fprintf(w, "%s\n", TruncateWords(c.Text, maxWords))
	}
}

// WriteRecordsReport summarizes a record creation run.
func WriteRecordsReport(w io.Writer, r *indexer.RecordsReport) {
	fmt.Fprintf(w, "Pages: %d (ok %d, empty %d, failed %d), records: %d, manuals: %d\n",
		r.Pages, r.Succeeded(), r.Skipped, len(r.Failed), len(r.Records), len(r.Manuals))
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  ! %s: %s\n", f.Path, Truncate(f.Err.Error(), 120))
	}
}

// WriteBuildReport writes per-manual index build results in the given format.
func WriteBuildReport(w io.Writer, r *indexer.BuildReport, format OutputFormat) error {
	if format == OutputJSON {
		type result struct {
			Manual string `json:"manual"`
			Path   string `json:"path,omitempty"`
			Chunks int    `json:"chunks"`
			Error  string `json:"error,omitempty"`
		}
		out := struct {
			Succeeded int      `json:"succeeded"`
			Failed    int      `json:"failed"`
			Results   []result `json:"results"`
		}{Succeeded: r.Succeeded, Failed: r.Failed, Results: []result{}}
		for _, res := range r.Results {
			item := result{Manual: res.Manual, Path: res.Path, Chunks: res.Chunks}
			if res.Err != nil {
				item.Error = res.Err.Error()
			}
			out.Results = append(out.Results, item)
		}
		return writeJSON(w, out)
	}
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "  ✗ %-24s %s\n", res.Manual, Truncate(res.Err.Error(), 120))
			continue
		}
		fmt.Fprintf(w, "  ✓ %-24s %5d chunks  %s\n", res.Manual, res.Chunks, res.Path)
	}
	fmt.Fprintf(w, "Indexes built: %d, failed: %d\n", r.Succeeded, r.Failed)
	return nil
}

// Truncate shortens s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
