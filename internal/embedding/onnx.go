package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// OnnxConfig configures a sentence-transformer model exported to ONNX.
type OnnxConfig struct {
	OrtLibrary    string // path to libonnxruntime; empty uses the loader default
	ModelPath     string
	TokenizerPath string // HuggingFace tokenizer.json
	MaxSeqLen     int
	ModelID       string
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime initializes the process-wide ONNX Runtime environment once.
func initRuntime(libPath string) error {
	ortInitOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// OnnxEmbedder runs a BERT-style encoder and mean-pools the last hidden
// state over the attention mask, then L2 normalizes.
type OnnxEmbedder struct {
	cfg OnnxConfig
	tk  *tokenizer.Tokenizer

	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// NewOnnxEmbedder loads the tokenizer and model.
func NewOnnxEmbedder(cfg OnnxConfig) (*OnnxEmbedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx embedder requires modelPath and tokenizerPath")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	cfg.ModelID = onnxModelID(cfg)

	if err := initRuntime(cfg.OrtLibrary); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &OnnxEmbedder{cfg: cfg, tk: tk, session: session}, nil
}

// onnxModelID names the model for cache keys as <name>@<path hash>. The
// absolute model path is always folded in, so two model files never share
// cached vectors even when they carry the same configured name.
func onnxModelID(cfg OnnxConfig) string {
	name := cfg.ModelID
	if name == "" {
		base := filepath.Base(cfg.ModelPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	path := cfg.ModelPath
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := sha256.Sum256([]byte(filepath.ToSlash(path)))
	return name + "@" + hex.EncodeToString(sum[:4])
}

// ModelID returns the model identifier used for cache keys.
func (o *OnnxEmbedder) ModelID() string {
	return o.cfg.ModelID
}

// EmbedTexts embeds texts one at a time.
func (o *OnnxEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := o.encode(NormalizeText(t))
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Close releases the session. The runtime environment stays initialized
// for the lifetime of the process.
func (o *OnnxEmbedder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

func (o *OnnxEmbedder) encode(text string) ([]float32, error) {
	enc, err := o.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	ids, mask, types := truncate(enc.Ids, enc.AttentionMask, enc.TypeIds, o.cfg.MaxSeqLen)
	seqLen := int64(len(ids))
	if seqLen == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}

	shape := ort.NewShape(1, seqLen)
	idsT, err := ort.NewTensor(shape, toInt64(ids))
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, toInt64(mask))
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()
	typesT, err := ort.NewTensor(shape, toInt64(types))
	if err != nil {
		return nil, err
	}
	defer typesT.Destroy()

	outputs := []ort.Value{nil}

	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return nil, errors.New("embedder is closed")
	}
	err = o.session.Run([]ort.Value{idsT, maskT, typesT}, outputs)
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer outputs[0].Destroy()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	dims := hidden.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	return meanPool(hidden.GetData(), mask, int(dims[1]), int(dims[2])), nil
}

// truncate keeps the first maxLen-1 tokens plus the final (separator) token.
func truncate(ids, mask, types []int, maxLen int) ([]int, []int, []int) {
	if len(ids) <= maxLen {
		return ids, mask, types
	}
	last := len(ids) - 1
	clip := func(s []int) []int {
		out := make([]int, 0, maxLen)
		out = append(out, s[:maxLen-1]...)
		return append(out, s[last])
	}
	return clip(ids), clip(mask), clip(types)
}

// meanPool averages token vectors where mask is set and L2 normalizes.
func meanPool(data []float32, mask []int, seqLen, hidden int) []float32 {
	vec := make([]float32, hidden)
	var count float32
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := data[t*hidden : (t+1)*hidden]
		for j, v := range row {
			vec[j] += v
		}
		count++
	}
	if count == 0 {
		return vec
	}

	var sum float64
	for j := range vec {
		vec[j] /= count
		sum += float64(vec[j]) * float64(vec[j])
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for j := range vec {
		vec[j] *= inv
	}
	return vec
}

func toInt64(s []int) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}
