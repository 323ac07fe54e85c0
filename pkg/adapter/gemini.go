package adapter

import (
	"context"
	"strings"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini is the interface for the Gemini API client. It covers both text
// completion and embedding generation.
type Gemini interface {
	LLM
	Embedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Generate sends role-tagged turns to the generative model and returns the
// first candidate's text. System turns become the system instruction.
func (g *GeminiClient) Generate(ctx context.Context, turns []model.Turn, cfg *GenerateConfig) (*Completion, error) {
	contents, system := splitTurns(turns)
	if len(contents) == 0 {
		return nil, goerr.New("no conversation turns to send")
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}
	if cfg != nil {
		config.MaxOutputTokens = int32(cfg.MaxOutputTokens)
		config.CandidateCount = int32(cfg.CandidateCount)
		temp := float32(cfg.Temperature)
		config.Temperature = &temp
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("no candidate in response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, goerr.New("empty response from model")
	}

	completion := &Completion{Text: text.String()}
	if resp.UsageMetadata != nil {
		completion.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return completion, nil
}

// Embedding converts text into an embedding vector using the embedding model.
func (g *GeminiClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

// splitTurns converts prompt turns into genai contents, separating system
// turns into a single system instruction.
func splitTurns(turns []model.Turn) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system []string

	for _, turn := range turns {
		switch turn.Role {
		case model.RoleSystem:
			system = append(system, turn.Content)
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))
		}
	}

	return contents, strings.Join(system, "\n\n")
}
