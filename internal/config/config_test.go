package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6333, cfg.Qdrant.Port)
	assert.Equal(t, "ollama", cfg.LLM.DefaultProvider)
	assert.Equal(t, "artist", cfg.Database.EntityField)
	assert.Equal(t, "artwork", cfg.Database.ItemType)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_PORT", "7333")
	t.Setenv("ENTITY_FIELD", "author")
	t.Setenv("ITEM_TYPE", "document")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 7333, cfg.Qdrant.Port)
	assert.Equal(t, "author", cfg.Database.EntityField)
	assert.Equal(t, "document", cfg.Database.ItemType)
}

func TestLoadYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database:\n  entity_field: creator\n  entity_type: creator\n  item_type: piece\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("VECTORQUERY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "creator", cfg.Database.EntityField)
	assert.Equal(t, "piece", cfg.Database.ItemType)
}

func TestHasProvider(t *testing.T) {
	t.Run("ollama enabled by default", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.HasProvider("ollama"))
	})

	t.Run("openai requires api key", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.HasProvider("openai"))

		cfg.LLM.OpenAI.APIKey = "sk-test"
		assert.True(t, cfg.HasProvider("openai"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.HasProvider("gemini"))
	})
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Database.EntityField = ""
	assert.Error(t, cfg.Validate())
}
