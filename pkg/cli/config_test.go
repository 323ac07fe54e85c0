package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPersona(t *testing.T) {
	t.Run("content is trimmed", func(t *testing.T) {
		cfg := &config{personaPath: writeFile(t, "persona.txt", "You are Kioku.\n\n")}
		persona, err := cfg.loadPersona()
		gt.NoError(t, err)
		gt.Equal(t, persona, "You are Kioku.")
	})

	t.Run("missing path is an error", func(t *testing.T) {
		cfg := &config{}
		_, err := cfg.loadPersona()
		gt.Error(t, err)
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		cfg := &config{personaPath: filepath.Join(t.TempDir(), "missing.txt")}
		_, err := cfg.loadPersona()
		gt.Error(t, err)
	})
}

func TestLoadTuning(t *testing.T) {
	t.Run("no tuning file yields empty defaults", func(t *testing.T) {
		cfg := &config{}
		tn, err := cfg.loadTuning()
		gt.NoError(t, err)
		gt.Equal(t, tn.Thresholds["wordvec"], 0.0)
	})

	t.Run("values are parsed", func(t *testing.T) {
		cfg := &config{tuningPath: writeFile(t, "tuning.yml",
			"thresholds:\n  wordvec: 0.65\n  gemini: 0.45\ngenerative_model: gemini-2.5-pro\n")}
		tn, err := cfg.loadTuning()
		gt.NoError(t, err)
		gt.Equal(t, tn.Thresholds["wordvec"], 0.65)
		gt.Equal(t, tn.Thresholds["gemini"], 0.45)
		gt.Equal(t, tn.GenerativeModel, "gemini-2.5-pro")
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		cfg := &config{tuningPath: writeFile(t, "tuning.yml", "thresholds: [broken")}
		_, err := cfg.loadTuning()
		gt.Error(t, err)
	})
}

func TestNewProvider(t *testing.T) {
	t.Run("wordvec requires a vector file", func(t *testing.T) {
		cfg := &config{provider: "wordvec"}
		_, err := cfg.newProvider()
		gt.Error(t, err)
	})

	t.Run("wordvec with vectors", func(t *testing.T) {
		cfg := &config{provider: "wordvec", vectorsPath: "vectors.txt"}
		provider, err := cfg.newProvider()
		gt.NoError(t, err)
		gt.Equal(t, provider.Name(), "wordvec")
		gt.Equal(t, provider.Threshold(), 0.7)
	})

	t.Run("flag threshold wins over tuning file", func(t *testing.T) {
		cfg := &config{
			provider:    "wordvec",
			vectorsPath: "vectors.txt",
			threshold:   0.9,
			tuningPath:  writeFile(t, "tuning.yml", "thresholds:\n  wordvec: 0.65\n"),
		}
		provider, err := cfg.newProvider()
		gt.NoError(t, err)
		gt.Equal(t, provider.Threshold(), 0.9)
	})

	t.Run("tuning threshold applies without flag", func(t *testing.T) {
		cfg := &config{
			provider:    "wordvec",
			vectorsPath: "vectors.txt",
			tuningPath:  writeFile(t, "tuning.yml", "thresholds:\n  wordvec: 0.65\n"),
		}
		provider, err := cfg.newProvider()
		gt.NoError(t, err)
		gt.Equal(t, provider.Threshold(), 0.65)
	})

	t.Run("gemini requires a project", func(t *testing.T) {
		cfg := &config{provider: "gemini"}
		_, err := cfg.newProvider()
		gt.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &config{provider: "tarot"}
		_, err := cfg.newProvider()
		gt.Error(t, err)
	})
}
