package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.vectorquery/internal/models"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, system, user, model string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error { return f.err }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestChainGenerate(t *testing.T) {
	t.Run("first provider succeeds", func(t *testing.T) {
		a := &fakeProvider{name: "a", text: "answer"}
		b := &fakeProvider{name: "b", text: "fallback"}
		chain := NewChain(quietLogger(), a, b)

		text, err := chain.Generate(context.Background(), "sys", "user", "")
		require.NoError(t, err)
		assert.Equal(t, "answer", text)
		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 0, b.calls)
	})

	t.Run("falls back once on failure", func(t *testing.T) {
		a := &fakeProvider{name: "a", err: errors.New("down")}
		b := &fakeProvider{name: "b", text: "fallback"}
		chain := NewChain(quietLogger(), a, b)

		text, err := chain.Generate(context.Background(), "sys", "user", "")
		require.NoError(t, err)
		assert.Equal(t, "fallback", text)
		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("returns last error when all fail", func(t *testing.T) {
		a := &fakeProvider{name: "a", err: errors.New("down a")}
		b := &fakeProvider{name: "b", err: errors.New("down b")}
		chain := NewChain(quietLogger(), a, b)

		_, err := chain.Generate(context.Background(), "sys", "user", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "down b")
	})

	t.Run("empty chain returns not configured", func(t *testing.T) {
		chain := NewChain(quietLogger())
		_, err := chain.Generate(context.Background(), "sys", "user", "")

		var notConfigured *models.ProviderNotConfiguredError
		require.ErrorAs(t, err, &notConfigured)
	})
}

func TestRegistry(t *testing.T) {
	a := &fakeProvider{name: "ollama", text: "local"}
	b := &fakeProvider{name: "openai", text: "remote"}
	reg := NewRegistry(quietLogger(), a, b)

	t.Run("has and names", func(t *testing.T) {
		assert.True(t, reg.Has("ollama"))
		assert.True(t, reg.Has("openai"))
		assert.False(t, reg.Has("gemini"))
		assert.Equal(t, []string{"ollama", "openai"}, reg.Names())
	})

	t.Run("chain for puts primary first", func(t *testing.T) {
		chain := reg.ChainFor("openai")
		text, err := chain.Generate(context.Background(), "", "q", "")
		require.NoError(t, err)
		assert.Equal(t, "remote", text)
	})

	t.Run("unknown primary keeps registration order", func(t *testing.T) {
		chain := reg.ChainFor("unknown")
		text, err := chain.Generate(context.Background(), "", "q", "")
		require.NoError(t, err)
		assert.Equal(t, "local", text)
	})
}
