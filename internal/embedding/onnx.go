//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// bertInputs are the graph inputs of a BERT-style sentence encoder, in session order.
var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// ONNXEmbedder runs a MiniLM-style sentence encoder (all-MiniLM-L6-v2 by default) with
// ONNX Runtime. It needs cgo and the onnxruntime shared library. One question or one
// chunk is encoded at a time on tensors allocated up front.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *ort.AdvancedSession
	io        *sessionTensors
	tokenizer Tokenizer
	opts      ONNXOptions
	meanPool  bool
}

// sessionTensors are the fixed-shape buffers bound to the session.
type sessionTensors struct {
	ids, mask, types *ort.Tensor[int64]
	out              *ort.Tensor[float32]
}

func newSessionTensors(seqLen, dims int64, meanPool bool) (*sessionTensors, error) {
	t := &sessionTensors{}
	inShape := ort.NewShape(1, seqLen)
	var err error
	if t.ids, err = ort.NewEmptyTensor[int64](inShape); err != nil {
		return nil, fmt.Errorf("allocate input_ids: %w", err)
	}
	if t.mask, err = ort.NewEmptyTensor[int64](inShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("allocate attention_mask: %w", err)
	}
	if t.types, err = ort.NewEmptyTensor[int64](inShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("allocate token_type_ids: %w", err)
	}
	outShape := ort.NewShape(1, dims)
	if meanPool {
		outShape = ort.NewShape(1, seqLen, dims)
	}
	if t.out, err = ort.NewEmptyTensor[float32](outShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("allocate output: %w", err)
	}
	return t, nil
}

func (t *sessionTensors) inputs() []ort.ArbitraryTensor {
	return []ort.ArbitraryTensor{t.ids, t.mask, t.types}
}

func (t *sessionTensors) destroy() {
	for _, in := range []*ort.Tensor[int64]{t.ids, t.mask, t.types} {
		if in != nil {
			_ = in.Destroy()
		}
	}
	if t.out != nil {
		_ = t.out.Destroy()
	}
	*t = sessionTensors{}
}

// NewONNXEmbedder loads the model at opts.ModelPath. The ONNX Runtime environment is
// initialized on first use and shared by every embedder in the process.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	opts.applyDefaults()
	var tok Tokenizer = HashTokenizer{}
	if opts.VocabPath != "" {
		wp, err := LoadWordPieceTokenizer(opts.VocabPath)
		if err != nil {
			return nil, err
		}
		tok = wp
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	meanPool := opts.OutputName == "last_hidden_state"
	io, err := newSessionTensors(int64(opts.MaxTokens), int64(opts.Dimensions), meanPool)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(opts.ModelPath, bertInputs, []string{opts.OutputName},
		io.inputs(), []ort.ArbitraryTensor{io.out}, nil)
	if err != nil {
		io.destroy()
		return nil, fmt.Errorf("load onnx model %s: %w", opts.ModelPath, err)
	}
	return &ONNXEmbedder{session: session, io: io, tokenizer: tok, opts: opts, meanPool: meanPool}, nil
}

// encodeLocked runs one forward pass. The caller holds e.mu.
func (e *ONNXEmbedder) encodeLocked(text string) ([]float32, error) {
	if e.session == nil {
		return nil, fmt.Errorf("onnx embedder is closed")
	}
	ids, mask, types := e.tokenizer.Tokenize(text, e.opts.MaxTokens)
	copy(e.io.ids.GetData(), ids)
	copy(e.io.mask.GetData(), mask)
	copy(e.io.types.GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	out := e.io.out.GetData()
	var vec []float32
	if e.meanPool {
		vec = MeanPool(out, mask, e.opts.Dimensions)
	} else {
		vec = append([]float32(nil), out[:e.opts.Dimensions]...)
	}
	NormalizeL2Slice(vec)
	return vec, nil
}

// Embed returns the unit-length embedding of text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeLocked(text)
}

// EmbedBatch encodes texts in order under a single lock, checking ctx between texts.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.encodeLocked(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Dimensions returns the embedding size.
func (e *ONNXEmbedder) Dimensions() int {
	return e.opts.Dimensions
}

// Close releases the session and its tensors. Further calls return an error.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.io != nil {
		e.io.destroy()
		e.io = nil
	}
	return err
}
