// Package embedding turns raw text into fixed-length semantic vectors.
//
// Two interchangeable providers are available: WordVec averages pretrained
// word vectors loaded from a local file (fast, low fidelity), and Gemini
// calls a sentence-level embedding model (slower to initialize, higher
// fidelity). Both initialize lazily on first use; the underlying model is
// loaded at most once per provider instance.
//
// Mixing vectors from providers with different dimensionality corrupts
// similarity search. After switching providers, stored messages must be
// re-embedded before searching.
package embedding

import "context"

// Provider converts text into embedding vectors of a fixed dimensionality.
// Embed must be deterministic for a fixed model version and must tolerate
// empty or very short input.
type Provider interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size, or 0 when the provider
	// has not been initialized yet.
	Dimensions() int

	// Name identifies the provider, e.g. for per-provider tuning.
	Name() string

	// Threshold is the provider's default similarity cutoff for retrieval.
	// Lower-fidelity embeddings produce lower scores for similar text and
	// need a lower cutoff.
	Threshold() float64
}
