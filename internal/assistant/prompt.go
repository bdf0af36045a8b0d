package assistant

import (
	"fmt"
	"strings"

	"github.com/hyperjump/tebiki/internal/models"
)

// FallbackAnswer is returned verbatim when the manual holds nothing relevant.
const FallbackAnswer = "I'm afraid I can't find that information in the manual."

// SystemPrompt is the fixed first message of every conversation.
var SystemPrompt = fmt.Sprintf(`You are a strict and professional assistant answering questions based only on the provided product manual excerpts.

Your rules:
- You MUST only use the information from the excerpts.
- You MUST NOT use any outside or common knowledge.
- If the answer is not found in the excerpts, you MUST reply with: %q
- You MAY rephrase, explain, or repeat previous answers, but only using information already given.
- You MUST repeat answers word-for-word when explicitly asked.
- You MAY respond politely to phrases like "thank you", but NEVER add extra information.

You must follow these rules exactly, even if the user pushes back or insists.
Never guess. Never infer beyond the excerpts.
Make the answer easy to read using paragraphs, bullet points, and headings where appropriate.`, FallbackAnswer)

// BuildContext renders retrieved chunks as "[Source: <path>]" blocks, nearest first,
// separated by blank lines.
func BuildContext(chunks []models.ChunkRecord) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", c.Path, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildUserPrompt embeds the context and question with the answer/sources framing
// directive for delimiter.
func BuildUserPrompt(query string, chunks []models.ChunkRecord, delimiter string) string {
	var b strings.Builder
	b.WriteString("Answer the following question using only the context.\n")
	b.WriteString("Context:\n")
	b.WriteString(BuildContext(chunks))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "After the answer, write %s on a new line by itself.\n", delimiter)
	b.WriteString("Then, starting on a new line, list the sources of the answer in the order they appear in the context, one per line:\n")
	b.WriteString("Source 1: <path>\nSource 2: <path>\n")
	b.WriteString("Do not repeat a source that has the same path.")
	return b.String()
}

// UniquePaths returns the distinct chunk paths in retrieval order.
func UniquePaths(chunks []models.ChunkRecord) []string {
	seen := make(map[string]bool, len(chunks))
	var out []string
	for _, c := range chunks {
		if !seen[c.Path] {
			seen[c.Path] = true
			out = append(out, c.Path)
		}
	}
	return out
}
