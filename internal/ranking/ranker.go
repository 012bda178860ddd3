package ranking

import (
	"context"
	"log/slog"
)

// Ranker runs the full pipeline: representations, lexical scores, semantic
// scores, combination and top-N selection.
type Ranker struct {
	lexical  *LexicalScorer
	semantic *SemanticScorer
	logger   *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithBM25Params overrides the BM25 parameters.
func WithBM25Params(p BM25Params) Option {
	return func(r *Ranker) { r.lexical = NewLexicalScorer(p) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) { r.logger = logger }
}

// NewRanker creates a ranker using embedder for the semantic signal.
func NewRanker(embedder Embedder, opts ...Option) *Ranker {
	r := &Ranker{
		lexical:  NewLexicalScorer(DefaultBM25Params()),
		semantic: NewSemanticScorer(embedder),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank returns the n candidates most relevant to query. The result has
// min(n, kept candidates) entries; repr may drop candidates it cannot
// represent.
func (r *Ranker) Rank(ctx context.Context, paths []string, query string, repr Representation, n int, w Weights) (RankedList, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if repr == nil {
		repr = PathOnly()
	}

	docs, err := repr.Build(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(docs) < len(paths) {
		r.logger.Debug("Representation dropped candidates",
			"representation", repr.Name(),
			"kept", len(docs),
			"dropped", len(paths)-len(docs),
		)
	}
	if len(docs) == 0 {
		return RankedList{}, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	lex := r.lexical.Score(texts, query)

	sem, err := r.semantic.Score(ctx, texts, query)
	if err != nil {
		return nil, err
	}

	nl, ns := Normalize(lex), Normalize(sem)
	combined, err := Combine(lex, sem, w)
	if err != nil {
		return nil, err
	}

	list := make(RankedList, len(docs))
	for i, d := range docs {
		list[i] = Scored{
			Path:     d.Path,
			Score:    combined[i],
			Lexical:  nl[i],
			Semantic: ns[i],
		}
	}
	top := list.Top(n)

	r.logger.Debug("Ranked candidates",
		"candidates", len(docs),
		"n", n,
		"representation", repr.Name(),
	)
	return top, nil
}
