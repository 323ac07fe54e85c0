package embedding

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
)

const defaultGeminiThreshold = 0.5

// Gemini is the sentence-embedding provider. It encodes a whole text with a
// learned sentence-level model through the Gemini adapter.
//
// The client is constructed lazily on the first Embed call, exactly once,
// because creating it is the expensive step (credential exchange, model
// resolution). Text is normalized before encoding; because all texts pass
// through Embed, stored messages and queries are normalized identically.
type Gemini struct {
	newClient func(ctx context.Context) (adapter.Gemini, error)
	threshold float64

	once    sync.Once
	client  adapter.Gemini
	initErr error

	mu   sync.Mutex
	dims int
}

type GeminiOption func(*Gemini)

// WithGeminiThreshold overrides the default similarity cutoff.
func WithGeminiThreshold(v float64) GeminiOption {
	return func(g *Gemini) {
		g.threshold = v
	}
}

// NewGemini creates a sentence-embedding provider. newClient is invoked at
// most once, on first use.
func NewGemini(newClient func(ctx context.Context) (adapter.Gemini, error), opts ...GeminiOption) *Gemini {
	g := &Gemini{
		newClient: newClient,
		threshold: defaultGeminiThreshold,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Embed normalizes text and encodes it with the sentence embedding model.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	g.once.Do(func() {
		g.client, g.initErr = g.newClient(ctx)
	})
	if g.initErr != nil {
		return nil, goerr.Wrap(g.initErr, "failed to initialize embedding client")
	}

	vec, err := g.client.Embedding(ctx, Normalize(text))
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.dims == 0 {
		g.dims = len(vec)
	}
	g.mu.Unlock()

	return vec, nil
}

// Dimensions returns the vector size observed on the first Embed call, or 0
// before any embedding has been generated.
func (g *Gemini) Dimensions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dims
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Threshold() float64 {
	return g.threshold
}

// Normalize lowercases text and strips punctuation. The same normalization
// must apply to stored messages and queries, or similarity scores between
// them are meaningless.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
