package embedding

// ONNXOptions configures an ONNXEmbedder.
type ONNXOptions struct {
	ModelPath string
	// VocabPath is a WordPiece vocab.txt; hash token IDs are used when empty.
	VocabPath string
	// OutputName is the graph output to read. "last_hidden_state" is mean-pooled over the
	// attention mask; any other name is read as an already pooled [1, dims] tensor.
	OutputName string
	Dimensions int
	MaxTokens  int
}

func (o *ONNXOptions) applyDefaults() {
	if o.OutputName == "" {
		o.OutputName = "last_hidden_state"
	}
	if o.Dimensions <= 0 {
		o.Dimensions = 384
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 256
	}
}

// MeanPool averages the token vectors of hidden ([tokens x dims], row-major) whose
// attention mask is set.
func MeanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var n float32
	for tok, m := range mask {
		if m == 0 || (tok+1)*dims > len(hidden) {
			continue
		}
		row := hidden[tok*dims : (tok+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		n++
	}
	if n > 0 {
		for i := range out {
			out[i] /= n
		}
	}
	return out
}
