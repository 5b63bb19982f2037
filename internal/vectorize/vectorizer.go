// Package vectorize turns composed book texts into TF-IDF vectors.
//
// The vocabulary is learned once from the whole corpus and columns are
// assigned in lexicographic token order, so building twice from the same
// corpus yields identical matrices. Weights use smoothed IDF:
//
//	idf(t) = ln((1+N) / (1+df(t))) + 1
//
// and every row is L2-normalized, so cosine similarity is a dot product.
package vectorize

import (
	"math"
	"sort"

	domainerrors "github.com/bookwise/bookwise-server/internal/errors"
)

// Options configures vocabulary learning.
type Options struct {
	// MaxFeatures caps the vocabulary to the most frequent tokens across the
	// corpus. Zero or negative means unlimited.
	MaxFeatures int
	// StopWords overrides the default stopword set.
	StopWords StopWordSet
}

// Vectorizer maps text onto a fixed vocabulary with learned IDF weights.
// It is immutable after Build and safe for concurrent use.
type Vectorizer struct {
	tokenizer *Tokenizer
	vocab     map[string]int
	terms     []string
	idf       []float64
}

// Build learns the vocabulary and IDF weights from corpus and returns the
// vectorizer together with the corpus matrix, row-aligned with corpus.
//
// Returns a DegenerateCorpus error when the corpus is empty or no document
// contains a single surviving token.
func Build(corpus []string, opts Options) (*Vectorizer, *Matrix, error) {
	if len(corpus) == 0 {
		return nil, nil, domainerrors.DegenerateCorpus("corpus is empty")
	}

	tokenizer := NewTokenizer(opts.StopWords)

	counts := make([]map[string]int, len(corpus))
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)

	for i, text := range corpus {
		tc := make(map[string]int)
		for _, tok := range tokenizer.Tokenize(text) {
			tc[tok]++
		}
		for tok, n := range tc {
			docFreq[tok]++
			termFreq[tok] += n
		}
		counts[i] = tc
	}

	if len(docFreq) == 0 {
		return nil, nil, domainerrors.DegenerateCorpus("no document has any indexable token")
	}

	terms := selectTerms(termFreq, opts.MaxFeatures)

	v := &Vectorizer{
		tokenizer: tokenizer,
		vocab:     make(map[string]int, len(terms)),
		terms:     terms,
		idf:       make([]float64, len(terms)),
	}

	n := float64(len(corpus))
	for col, term := range terms {
		v.vocab[term] = col
		v.idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	m := &Matrix{rows: make([]Vector, len(corpus)), cols: len(terms)}
	for i, tc := range counts {
		m.rows[i] = v.weigh(tc)
	}

	return v, m, nil
}

// selectTerms returns the vocabulary in lexicographic order, keeping only the
// maxFeatures most frequent tokens when maxFeatures > 0. Frequency ties are
// broken lexicographically so the cut is deterministic.
func selectTerms(termFreq map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}

	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			fi, fj := termFreq[terms[i]], termFreq[terms[j]]
			if fi != fj {
				return fi > fj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// Transform vectorizes out-of-corpus text against the learned vocabulary.
// Tokens outside the vocabulary are ignored; text with no known tokens
// yields the zero vector.
func (v *Vectorizer) Transform(text string) Vector {
	tc := make(map[string]int)
	for _, tok := range v.tokenizer.Tokenize(text) {
		tc[tok]++
	}
	return v.weigh(tc)
}

// weigh turns raw token counts into a normalized TF-IDF vector.
func (v *Vectorizer) weigh(counts map[string]int) Vector {
	cols := make([]int, 0, len(counts))
	for tok := range counts {
		if col, ok := v.vocab[tok]; ok {
			cols = append(cols, col)
		}
	}
	sort.Ints(cols)

	vec := Vector{Indices: cols, Values: make([]float64, len(cols))}
	for i, col := range cols {
		vec.Values[i] = float64(counts[v.terms[col]]) * v.idf[col]
	}
	vec.normalize()
	return vec
}

// VocabularySize returns the number of columns.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Vocabulary returns a copy of the vocabulary in column order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// IDF returns the learned weight of term, if it is in the vocabulary.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	col, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[col], true
}
