package cli

import (
	"context"
	"os"
	"strings"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/embedding"
	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/kioku-ai/kioku/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values shared across commands.
type config struct {
	// Storage
	dbPath string

	// Persona / tuning
	personaPath string
	tuningPath  string

	// Embedding provider
	provider    string
	vectorsPath string
	threshold   float64

	// LLM backend
	llm             string
	geminiProject   string
	geminiLocation  string
	geminiModel     string
	embeddingModel  string
	anthropicAPIKey string
	claudeModel     string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config.
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Path to the SQLite conversation log",
			Value:       "kioku.sqlite",
			Sources:     cli.EnvVars("KIOKU_DB"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "tuning",
			Usage:       "Path to optional YAML tuning file",
			Sources:     cli.EnvVars("KIOKU_TUNING"),
			Destination: &cfg.tuningPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("KIOKU_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// providerFlags returns flags for embedding provider configuration.
func providerFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Embedding provider (wordvec, gemini)",
			Value:       "wordvec",
			Sources:     cli.EnvVars("KIOKU_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "vectors",
			Usage:       "Path to pretrained word vector file (wordvec provider)",
			Sources:     cli.EnvVars("KIOKU_VECTORS"),
			Destination: &cfg.vectorsPath,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Aliases:     []string{"t"},
			Usage:       "Similarity cutoff override (0 = provider default)",
			Sources:     cli.EnvVars("KIOKU_THRESHOLD"),
			Destination: &cfg.threshold,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Gemini embedding model ID",
			Sources:     cli.EnvVars("KIOKU_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// llmFlags returns flags for the language model backend.
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Path to the persona (system prompt) file",
			Sources:     cli.EnvVars("KIOKU_PERSONA"),
			Destination: &cfg.personaPath,
		},
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Completion backend (gemini, claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("KIOKU_LLM"),
			Destination: &cfg.llm,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generative model ID",
			Sources:     cli.EnvVars("KIOKU_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model ID",
			Sources:     cli.EnvVars("KIOKU_CLAUDE_MODEL"),
			Destination: &cfg.claudeModel,
		},
	}
}

// tuning is the optional YAML tuning file: per-provider similarity cutoffs
// and model overrides.
type tuning struct {
	Thresholds      map[string]float64 `yaml:"thresholds"`
	GenerativeModel string             `yaml:"generative_model"`
	EmbeddingModel  string             `yaml:"embedding_model"`
}

// loadTuning reads the tuning file when one is configured.
func (cfg *config) loadTuning() (*tuning, error) {
	if cfg.tuningPath == "" {
		return &tuning{}, nil
	}

	content, err := os.ReadFile(cfg.tuningPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read tuning file", goerr.V("file", cfg.tuningPath))
	}

	var t tuning
	if err := yaml.Unmarshal(content, &t); err != nil {
		return nil, goerr.Wrap(err, "failed to parse tuning file", goerr.V("file", cfg.tuningPath))
	}
	return &t, nil
}

// loadPersona reads the persona file and hands it over as an opaque string.
func (cfg *config) loadPersona() (string, error) {
	if cfg.personaPath == "" {
		return "", goerr.New("persona is required")
	}

	content, err := os.ReadFile(cfg.personaPath)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read persona file", goerr.V("file", cfg.personaPath))
	}
	return strings.TrimSpace(string(content)), nil
}

// newRepository opens the SQLite conversation log.
func (cfg *config) newRepository() (repository.Repository, error) {
	if cfg.dbPath == "" {
		return nil, goerr.New("db path is required")
	}
	return repository.NewSQLite(cfg.dbPath)
}

// newProvider creates the configured embedding provider. The threshold is
// resolved flag > tuning file > provider default.
func (cfg *config) newProvider() (embedding.Provider, error) {
	t, err := cfg.loadTuning()
	if err != nil {
		return nil, err
	}

	threshold := cfg.threshold
	if threshold == 0 {
		threshold = t.Thresholds[cfg.provider]
	}

	switch cfg.provider {
	case "wordvec":
		if cfg.vectorsPath == "" {
			return nil, goerr.New("vectors path is required for the wordvec provider")
		}
		var opts []embedding.WordVecOption
		if threshold > 0 {
			opts = append(opts, embedding.WithWordVecThreshold(threshold))
		}
		return embedding.NewWordVec(cfg.vectorsPath, opts...), nil

	case "gemini":
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required for the gemini provider")
		}
		embeddingModel := cfg.embeddingModel
		if embeddingModel == "" {
			embeddingModel = t.EmbeddingModel
		}
		newClient := func(ctx context.Context) (adapter.Gemini, error) {
			var adapterOpts []adapter.GeminiOption
			if embeddingModel != "" {
				adapterOpts = append(adapterOpts, adapter.WithEmbeddingModel(embeddingModel))
			}
			return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, adapterOpts...)
		}
		var opts []embedding.GeminiOption
		if threshold > 0 {
			opts = append(opts, embedding.WithGeminiThreshold(threshold))
		}
		return embedding.NewGemini(newClient, opts...), nil

	default:
		return nil, goerr.New("unknown embedding provider", goerr.V("provider", cfg.provider))
	}
}

// newMemory wires the repository and embedding provider into the memory
// engine. The returned repository must be closed by the caller.
func (cfg *config) newMemory() (*memory.UseCase, repository.Repository, error) {
	repo, err := cfg.newRepository()
	if err != nil {
		return nil, nil, err
	}

	provider, err := cfg.newProvider()
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	return memory.New(repo, provider), repo, nil
}

// newLLM creates the configured completion backend.
func (cfg *config) newLLM(ctx context.Context) (adapter.LLM, error) {
	t, err := cfg.loadTuning()
	if err != nil {
		return nil, err
	}

	switch cfg.llm {
	case "gemini":
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required")
		}
		generativeModel := cfg.geminiModel
		if generativeModel == "" {
			generativeModel = t.GenerativeModel
		}
		var opts []adapter.GeminiOption
		if generativeModel != "" {
			opts = append(opts, adapter.WithGenerativeModel(generativeModel))
		}
		return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)

	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		var opts []adapter.ClaudeOption
		if cfg.claudeModel != "" {
			opts = append(opts, adapter.WithClaudeModel(cfg.claudeModel))
		}
		return adapter.NewClaude(cfg.anthropicAPIKey, opts...), nil

	default:
		return nil, goerr.New("unknown LLM backend", goerr.V("llm", cfg.llm))
	}
}
