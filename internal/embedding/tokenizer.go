package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	clsID = 101
	sepID = 102
	unkID = 100
)

// WordPieceTokenizer implements the uncased BERT WordPiece scheme used by MiniLM models.
type WordPieceTokenizer struct {
	vocab map[string]int64
	unk   int64
	cls   int64
	sep   int64
}

// LoadWordPieceTokenizer reads a vocab.txt file (one token per line, ID = line number).
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()
	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		vocab[strings.TrimRight(scanner.Text(), "\r")] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab), nil
}

// NewWordPieceTokenizer builds a tokenizer over vocab. Special tokens missing from vocab
// use the standard BERT IDs.
func NewWordPieceTokenizer(vocab map[string]int64) *WordPieceTokenizer {
	lookup := func(tok string, def int64) int64 {
		if id, ok := vocab[tok]; ok {
			return id
		}
		return def
	}
	return &WordPieceTokenizer{
		vocab: vocab,
		unk:   lookup("[UNK]", unkID),
		cls:   lookup("[CLS]", clsID),
		sep:   lookup("[SEP]", sepID),
	}
}

// Tokenize lowercases text, splits words and punctuation, and applies greedy longest-match
// WordPiece. Output is [CLS] tokens [SEP] padded to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicSplit(text) {
		ids = append(ids, t.wordPiece(word)...)
	}
	return pack(ids, t.cls, t.sep, maxTokens)
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	var ids []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var found int64 = -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk}
		}
		ids = append(ids, found)
		start = end
	}
	return ids
}

// basicSplit lowercases text and splits it on whitespace, emitting punctuation as
// separate tokens.
func basicSplit(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// HashTokenizer maps words to hash-based IDs. Used when no vocabulary file is configured.
type HashTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := basicSplit(text)
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = int64(HashString(w)%29000) + 1000
	}
	return pack(ids, clsID, sepID, maxTokens)
}

// pack frames ids with cls/sep, truncating and padding to maxTokens (256 when non-positive).
func pack(ids []int64, cls, sep int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = sep
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 {
		h = 0
	}
	return h
}
