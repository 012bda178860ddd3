package ranking

import "math"

// BM25Params are the Okapi BM25 free parameters.
type BM25Params struct {
	K1 float64
	B  float64
}

// DefaultBM25Params returns k1=1.2, b=0.75.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// LexicalScorer computes BM25 scores. A fresh index is built over the
// candidates on every call, so scores depend only on the arguments.
type LexicalScorer struct {
	params BM25Params
}

// NewLexicalScorer creates a scorer with the given parameters.
func NewLexicalScorer(params BM25Params) *LexicalScorer {
	return &LexicalScorer{params: params}
}

// Score returns one BM25 score per candidate. Duplicate query terms
// contribute once per occurrence.
func (s *LexicalScorer) Score(candidates []string, query string) ScoreVector {
	scores := make(ScoreVector, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	idx := newBM25Index(candidates)
	if idx.totalLength == 0 {
		return scores
	}

	avgDL := float64(idx.totalLength) / float64(len(candidates))
	k1, b := s.params.K1, s.params.B

	for _, term := range TokenizeQuery(query) {
		postings, ok := idx.inverted[term]
		if !ok {
			continue
		}
		idf := computeIDF(len(candidates), len(postings))

		for _, p := range postings {
			tf := float64(p.count)
			docLen := float64(idx.docLengths[p.doc])

			num := tf * (k1 + 1)
			denom := tf + k1*(1-b+b*(docLen/avgDL))
			scores[p.doc] += idf * (num / denom)
		}
	}

	return scores
}

// computeIDF is log(1 + (N - n + 0.5) / (n + 0.5)); always positive.
func computeIDF(docCount, df int) float64 {
	n := float64(df)
	return math.Log(1 + (float64(docCount)-n+0.5)/(n+0.5))
}

type posting struct {
	doc   int
	count int
}

type bm25Index struct {
	inverted    map[string][]posting
	docLengths  []int
	totalLength int
}

func newBM25Index(docs []string) *bm25Index {
	idx := &bm25Index{
		inverted:   make(map[string][]posting),
		docLengths: make([]int, len(docs)),
	}

	for i, doc := range docs {
		tokens := TokenizeCandidate(doc)
		idx.docLengths[i] = len(tokens)
		idx.totalLength += len(tokens)

		tf := make(map[string]int)
		order := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if tf[t] == 0 {
				order = append(order, t)
			}
			tf[t]++
		}
		for _, t := range order {
			idx.inverted[t] = append(idx.inverted[t], posting{doc: i, count: tf[t]})
		}
	}

	return idx
}
