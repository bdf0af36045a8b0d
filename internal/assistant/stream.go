package assistant

import "strings"

// StreamSplitter separates a streamed completion into the visible answer and the source
// text at the first occurrence of the delimiter. A delimiter split across fragments is
// detected: the possible prefix is held back until the next fragment decides it.
type StreamSplitter struct {
	delimiter string
	held      string
	split     bool
	raw       strings.Builder
	visible   strings.Builder
	sources   strings.Builder
}

// NewStreamSplitter returns a splitter for delimiter.
func NewStreamSplitter(delimiter string) *StreamSplitter {
	return &StreamSplitter{delimiter: delimiter}
}

// Write consumes the next fragment and returns the visible text it releases, possibly empty.
func (s *StreamSplitter) Write(fragment string) string {
	s.raw.WriteString(fragment)
	if s.split {
		s.sources.WriteString(fragment)
		return ""
	}
	text := s.held + fragment
	s.held = ""
	if i := strings.Index(text, s.delimiter); i >= 0 {
		s.split = true
		s.visible.WriteString(text[:i])
		s.sources.WriteString(text[i+len(s.delimiter):])
		return text[:i]
	}
	keep := partialDelimiter(text, s.delimiter)
	out := text[:len(text)-keep]
	s.held = text[len(text)-keep:]
	s.visible.WriteString(out)
	return out
}

// Flush releases text held back as a possible delimiter prefix. Call it once the stream ends.
func (s *StreamSplitter) Flush() string {
	out := s.held
	s.held = ""
	s.visible.WriteString(out)
	return out
}

// Split reports whether the delimiter has been seen.
func (s *StreamSplitter) Split() bool {
	return s.split
}

// Visible returns the answer text released so far.
func (s *StreamSplitter) Visible() string {
	return s.visible.String()
}

// Sources returns the text after the delimiter.
func (s *StreamSplitter) Sources() string {
	return s.sources.String()
}

// Raw returns every fragment written, concatenated.
func (s *StreamSplitter) Raw() string {
	return s.raw.String()
}

// partialDelimiter returns the length of the longest proper prefix of delim that text ends with.
func partialDelimiter(text, delim string) int {
	for k := min(len(delim)-1, len(text)); k > 0; k-- {
		if strings.HasSuffix(text, delim[:k]) {
			return k
		}
	}
	return 0
}

// SplitCompletion splits a complete response the same way a stream is split.
func SplitCompletion(text, delimiter string) (visible, sources string) {
	s := NewStreamSplitter(delimiter)
	s.Write(text)
	s.Flush()
	return s.Visible(), s.Sources()
}

// ParseCitations extracts page paths from source text. Every line containing "Source"
// contributes the text after its last colon, trimmed, with backslashes turned into
// forward slashes. Lines yielding an empty path are skipped. Paths are kept in order;
// repeats are dropped only when dedupe is set.
func ParseCitations(sources string, dedupe bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(sources, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "Source") {
			continue
		}
		path := line[strings.LastIndex(line, ":")+1:]
		path = strings.ReplaceAll(strings.TrimSpace(path), `\`, "/")
		if path == "" {
			continue
		}
		if dedupe {
			if seen[path] {
				continue
			}
			seen[path] = true
		}
		out = append(out, path)
	}
	return out
}
