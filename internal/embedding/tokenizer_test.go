package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHashTokenizer_Tokenize(t *testing.T) {
	ids, attn, types := HashTokenizer{}.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths: %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != clsID || ids[3] != sepID {
		t.Errorf("expected CLS at 0 and SEP at 3, got %v", ids)
	}
	if attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestWordPieceTokenizer(t *testing.T) {
	vocab := map[string]int64{
		"[PAD]": 0, "[UNK]": 100, "[CLS]": 101, "[SEP]": 102,
		"turn": 2000, "the": 2001, "knob": 2002, "clock": 2003, "##wise": 2004, ".": 1012,
	}
	tok := NewWordPieceTokenizer(vocab)
	ids, attn, _ := tok.Tokenize("Turn the knob clockwise. Zzz", 12)
	want := []int64{101, 2000, 2001, 2002, 2003, 2004, 1012, 100, 102, 0, 0, 0}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if attn[8] != 1 || attn[9] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestWordPieceTokenizer_Truncates(t *testing.T) {
	tok := NewWordPieceTokenizer(map[string]int64{"a": 5})
	ids, _, _ := tok.Tokenize("a a a a a a", 4)
	if want := []int64{101, 5, 5, 102}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestLoadWordPieceTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("[PAD]\n[UNK]\n[CLS]\n[SEP]\nvolume\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("Volume", 4)
	if want := []int64{2, 4, 3, 0}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}
