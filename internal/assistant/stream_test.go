package assistant

import (
	"reflect"
	"strings"
	"testing"
)

func TestStreamSplitter_DelimiterInsideFragment(t *testing.T) {
	s := NewStreamSplitter("🦒")
	var got strings.Builder
	for _, frag := range []string{"The device ", "resets automatically.🦒\nSource 1: docs/a.jpg", "\nSource 2: docs/b.jpg"} {
		got.WriteString(s.Write(frag))
	}
	got.WriteString(s.Flush())
	if got.String() != "The device resets automatically." {
		t.Errorf("forwarded = %q", got.String())
	}
	if !s.Split() || s.Sources() != "\nSource 1: docs/a.jpg\nSource 2: docs/b.jpg" {
		t.Errorf("sources = %q", s.Sources())
	}
	if s.Raw() != "The device resets automatically.🦒\nSource 1: docs/a.jpg\nSource 2: docs/b.jpg" {
		t.Errorf("raw = %q", s.Raw())
	}
}

func TestStreamSplitter_DelimiterAcrossFragments(t *testing.T) {
	s := NewStreamSplitter("<<END>>")
	if out := s.Write("answer <<E"); out != "answer " {
		t.Errorf("first Write = %q, want held-back prefix", out)
	}
	if out := s.Write("ND>>\nSource 1: a"); out != "" {
		t.Errorf("second Write = %q, want empty", out)
	}
	if s.Visible() != "answer " || s.Sources() != "\nSource 1: a" {
		t.Errorf("visible %q sources %q", s.Visible(), s.Sources())
	}
}

func TestStreamSplitter_FalsePrefixReleased(t *testing.T) {
	s := NewStreamSplitter("<<END>>")
	var got []string
	for _, frag := range []string{"a <", "b <<", "c"} {
		got = append(got, s.Write(frag))
	}
	got = append(got, s.Flush())
	if want := []string{"a ", "<b ", "<<c", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("writes = %q, want %q", got, want)
	}
	if s.Split() {
		t.Error("no delimiter was sent")
	}
}

func TestStreamSplitter_TrailingPrefixFlushed(t *testing.T) {
	s := NewStreamSplitter("<<END>>")
	s.Write("ends with <<")
	if out := s.Flush(); out != "<<" {
		t.Errorf("Flush() = %q", out)
	}
	if s.Visible() != "ends with <<" {
		t.Errorf("visible = %q", s.Visible())
	}
}

func TestSplitCompletion(t *testing.T) {
	visible, sources := SplitCompletion("Turn the knob clockwise.🦒\nSource 1: p1", "🦒")
	if visible != "Turn the knob clockwise." || sources != "\nSource 1: p1" {
		t.Errorf("SplitCompletion() = %q, %q", visible, sources)
	}
	visible, sources = SplitCompletion("no delimiter here", "🦒")
	if visible != "no delimiter here" || sources != "" {
		t.Errorf("SplitCompletion() without delimiter = %q, %q", visible, sources)
	}
}

func TestParseCitations(t *testing.T) {
	tests := []struct {
		name    string
		sources string
		dedupe  bool
		want    []string
	}{
		{
			name:    "numbered lines",
			sources: "\nSource 1: docs/a.jpg\nSource 2: docs/b.jpg",
			want:    []string{"docs/a.jpg", "docs/b.jpg"},
		},
		{
			name:    "backslashes normalized",
			sources: "Source 1: docs\\m1\\images\\p3.jpg",
			want:    []string{"docs/m1/images/p3.jpg"},
		},
		{
			name:    "non-source lines ignored",
			sources: "\n\nHope this helps!\nSources:\nSource 1: a.jpg\n",
			want:    []string{"a.jpg"},
		},
		{
			name:    "misspelled label ignored",
			sources: "Soruce 1: a.jpg\nSource 2: b.jpg",
			want:    []string{"b.jpg"},
		},
		{
			name:    "duplicates kept by default",
			sources: "Source 1: a.jpg\nSource 2: a.jpg",
			want:    []string{"a.jpg", "a.jpg"},
		},
		{
			name:    "duplicates dropped when asked",
			sources: "Source 1: a.jpg\nSource 2: a.jpg\nSource 3: b.jpg",
			dedupe:  true,
			want:    []string{"a.jpg", "b.jpg"},
		},
		{
			name:    "empty",
			sources: "",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCitations(tt.sources, tt.dedupe)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCitations() = %q, want %q", got, tt.want)
			}
		})
	}
}
