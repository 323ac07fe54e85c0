package embedding

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

const defaultWordVecThreshold = 0.7

// WordVec is the lexical-average embedding provider. It loads pretrained
// word vectors from a GloVe-style text file (one "token v1 v2 ... vD" line
// per word) and embeds a text as the average of its known token vectors.
//
// The vector file is loaded lazily on first use, exactly once.
type WordVec struct {
	path      string
	threshold float64

	once    sync.Once
	loadErr error
	vectors map[string][]float32
	dims    int
}

type WordVecOption func(*WordVec)

// WithWordVecThreshold overrides the default similarity cutoff.
func WithWordVecThreshold(v float64) WordVecOption {
	return func(w *WordVec) {
		w.threshold = v
	}
}

// NewWordVec creates a word-vector provider backed by the given vector file.
// The file is not read until the first Embed or Dimensions call.
func NewWordVec(path string, opts ...WordVecOption) *WordVec {
	w := &WordVec{
		path:      path,
		threshold: defaultWordVecThreshold,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Embed returns the average of the word vectors of the text's tokens.
// Tokens without a pretrained vector are skipped; a text with no known
// tokens (including the empty string) embeds to the zero vector.
func (w *WordVec) Embed(ctx context.Context, text string) ([]float32, error) {
	w.once.Do(w.load)
	if w.loadErr != nil {
		return nil, w.loadErr
	}

	vec := make([]float32, w.dims)
	var found int
	for _, token := range tokenize(text) {
		tokenVec, ok := w.vectors[token]
		if !ok {
			continue
		}
		for i, v := range tokenVec {
			vec[i] += v
		}
		found++
	}

	if found > 0 {
		for i := range vec {
			vec[i] /= float32(found)
		}
	}
	return vec, nil
}

// Dimensions returns the vector size, loading the file if needed.
func (w *WordVec) Dimensions() int {
	w.once.Do(w.load)
	return w.dims
}

func (w *WordVec) Name() string {
	return "wordvec"
}

func (w *WordVec) Threshold() float64 {
	return w.threshold
}

func (w *WordVec) load() {
	f, err := os.Open(w.path)
	if err != nil {
		w.loadErr = goerr.Wrap(err, "failed to open word vector file", goerr.V("path", w.path))
		return
	}
	defer f.Close()

	vectors := make(map[string][]float32)
	dims := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		token := fields[0]
		vec := make([]float32, len(fields)-1)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				w.loadErr = goerr.Wrap(err, "invalid vector value in word vector file",
					goerr.V("path", w.path), goerr.V("token", token))
				return
			}
			vec[i] = float32(v)
		}

		if dims == 0 {
			dims = len(vec)
		} else if len(vec) != dims {
			w.loadErr = goerr.New("inconsistent vector dimensions in word vector file",
				goerr.V("path", w.path), goerr.V("token", token),
				goerr.V("expected", dims), goerr.V("actual", len(vec)))
			return
		}

		vectors[token] = vec
	}
	if err := scanner.Err(); err != nil {
		w.loadErr = goerr.Wrap(err, "failed to read word vector file", goerr.V("path", w.path))
		return
	}
	if len(vectors) == 0 {
		w.loadErr = goerr.New("word vector file contains no vectors", goerr.V("path", w.path))
		return
	}

	w.vectors = vectors
	w.dims = dims
}

// tokenize splits text into lowercase tokens with surrounding punctuation
// removed, matching the normalization of the vector file vocabulary.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, ".,!?;:\"'()[]")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
