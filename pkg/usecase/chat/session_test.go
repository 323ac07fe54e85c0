package chat_test

import (
	"context"
	"testing"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/usecase/chat"
	"github.com/kioku-ai/kioku/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// Mock Repository
type mockRepo struct {
	messages []*model.Message
	nextID   int64
}

func (m *mockRepo) Put(ctx context.Context, msg *model.Message) (int64, error) {
	m.nextID++
	stored := *msg
	stored.ID = m.nextID
	m.messages = append(m.messages, &stored)
	return stored.ID, nil
}

func (m *mockRepo) LastN(ctx context.Context, n int) ([]*model.Message, error) {
	if n > len(m.messages) {
		n = len(m.messages)
	}
	return m.messages[len(m.messages)-n:], nil
}

func (m *mockRepo) ScanAll(ctx context.Context) ([]*model.Message, error) {
	return m.messages, nil
}

func (m *mockRepo) DeleteRecent(ctx context.Context, k int) error {
	if k > len(m.messages) {
		k = len(m.messages)
	}
	m.messages = m.messages[:len(m.messages)-k]
	return nil
}

func (m *mockRepo) DeleteAll(ctx context.Context) error {
	m.messages = nil
	return nil
}

func (m *mockRepo) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Embedding = embedding
			return nil
		}
	}
	return goerr.New("message not found", goerr.V("id", id))
}

func (m *mockRepo) Close() error {
	return nil
}

// Mock embedding provider
type mockProvider struct {
	embedFunc func(text string) ([]float32, error)
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embedFunc(text)
}

func (m *mockProvider) Dimensions() int { return 0 }

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Threshold() float64 { return 0.7 }

// Mock LLM recording every call
type llmCall struct {
	turns []model.Turn
	cfg   *adapter.GenerateConfig
}

type mockLLM struct {
	calls []llmCall
	reply string
	err   error
}

func (m *mockLLM) Generate(ctx context.Context, turns []model.Turn, cfg *adapter.GenerateConfig) (*adapter.Completion, error) {
	m.calls = append(m.calls, llmCall{turns: turns, cfg: cfg})
	if m.err != nil {
		return nil, m.err
	}
	return &adapter.Completion{Text: m.reply, TokensUsed: 42}, nil
}

type testSetup struct {
	repo    *mockRepo
	llm     *mockLLM
	session *chat.Session
}

func setup(embedFunc func(string) ([]float32, error)) *testSetup {
	if embedFunc == nil {
		embedFunc = func(string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
	}
	repo := &mockRepo{}
	llm := &mockLLM{reply: "a fine answer"}
	mem := memory.New(repo, &mockProvider{embedFunc: embedFunc})
	session := chat.New(chat.NewInput{
		Memory:  mem,
		LLM:     llm,
		Persona: "You are a helpful assistant named Kioku.",
	})
	return &testSetup{repo: repo, llm: llm, session: session}
}

func mustSend(t *testing.T, ts *testSetup, message string) {
	t.Helper()
	_, err := ts.session.Send(context.Background(), message)
	gt.NoError(t, err)
}

func TestSendFirstTurn(t *testing.T) {
	ctx := context.Background()
	ts := setup(nil)

	reply, err := ts.session.Send(ctx, "good morning")
	gt.NoError(t, err)
	gt.Equal(t, reply.Text, "a fine answer")
	gt.Equal(t, reply.TokensUsed, 42)

	// Empty store: no summaries, so the reply call is the only model call.
	gt.A(t, ts.llm.calls).Length(1)
	turns := ts.llm.calls[0].turns
	gt.A(t, turns).Length(2)
	gt.Equal(t, turns[0].Role, model.RoleSystem)
	gt.S(t, turns[0].Content).Contains("Kioku")
	gt.Equal(t, turns[1].Role, model.RoleUser)
	gt.Equal(t, turns[1].Content, "good morning")

	// Both halves of the exchange are persisted, user first.
	gt.A(t, ts.repo.messages).Length(2)
	gt.Equal(t, ts.repo.messages[0].Sender, model.SenderUser)
	gt.Equal(t, ts.repo.messages[0].Text, "good morning")
	gt.Equal(t, ts.repo.messages[1].Sender, model.SenderAgent)
	gt.Equal(t, ts.repo.messages[1].Text, "a fine answer")
	gt.Equal(t, ts.repo.messages[0].Timestamp, ts.repo.messages[1].Timestamp)
}

func TestSendWithHistory(t *testing.T) {
	// Stored messages embed far from the new query so retrieval stays empty
	// and only the recency summary kicks in.
	ts := setup(func(text string) ([]float32, error) {
		if text == "second message" {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	})

	mustSend(t, ts, "first message")
	ts.llm.calls = nil

	mustSend(t, ts, "second message")

	// Call 1 summarizes the recent transcript, call 2 answers.
	gt.A(t, ts.llm.calls).Length(2)

	summaryTurns := ts.llm.calls[0].turns
	gt.A(t, summaryTurns).Length(4)
	gt.Equal(t, summaryTurns[0].Role, model.RoleSystem)
	gt.Equal(t, summaryTurns[1].Role, model.RoleUser)
	gt.Equal(t, summaryTurns[1].Content, "first message")
	gt.Equal(t, summaryTurns[2].Role, model.RoleAssistant)
	gt.Equal(t, summaryTurns[2].Content, "a fine answer")
	gt.Equal(t, summaryTurns[3].Role, model.RoleUser)
	gt.S(t, summaryTurns[3].Content).Contains("summary")

	replyTurns := ts.llm.calls[1].turns
	gt.A(t, replyTurns).Length(3)
	gt.Equal(t, replyTurns[0].Role, model.RoleSystem)
	gt.Equal(t, replyTurns[1].Role, model.RoleAssistant)
	gt.S(t, replyTurns[1].Content).Contains("summary of the most recent conversation")
	gt.Equal(t, replyTurns[2].Role, model.RoleUser)
	gt.Equal(t, replyTurns[2].Content, "second message")
}

func TestSendWithRetrieval(t *testing.T) {
	// Every text embeds identically, so the stored exchange is always a hit.
	ts := setup(nil)

	mustSend(t, ts, "I love hiking")
	ts.llm.calls = nil

	mustSend(t, ts, "remember my hobby?")

	// Recency summary, snippet summary, then the reply.
	gt.A(t, ts.llm.calls).Length(3)

	snippetTurns := ts.llm.calls[1].turns
	gt.A(t, snippetTurns).Length(3)
	gt.Equal(t, snippetTurns[0].Role, model.RoleSystem)
	gt.S(t, snippetTurns[0].Content).Contains("summarize any information relevant")
	gt.Equal(t, snippetTurns[1].Role, model.RoleUser)
	gt.Equal(t, snippetTurns[1].Content, "remember my hobby?")
	gt.Equal(t, snippetTurns[2].Role, model.RoleAssistant)
	gt.S(t, snippetTurns[2].Content).Contains("I love hiking")

	replyTurns := ts.llm.calls[2].turns
	gt.A(t, replyTurns).Length(4)
	gt.S(t, replyTurns[2].Content).Contains("past conversations")
	gt.Equal(t, replyTurns[3].Content, "remember my hobby?")
}

func TestSendFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	ts := setup(nil)
	ts.llm.err = goerr.New("model unavailable")

	_, err := ts.session.Send(ctx, "hello?")
	gt.Error(t, err)
	gt.A(t, ts.repo.messages).Length(0)
}

func TestSendGenerateConfig(t *testing.T) {
	ts := setup(nil)

	mustSend(t, ts, "hello")

	cfg := ts.llm.calls[0].cfg
	gt.Equal(t, cfg.MaxOutputTokens, 500)
	gt.Equal(t, cfg.Temperature, 0.6)
	gt.Equal(t, cfg.CandidateCount, 1)
}
