package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientis/orientis/internal/adapter/ai/ollama"
	"github.com/orientis/orientis/internal/domain"
)

func TestChat_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Options struct {
				Temperature float64 `json:"temperature"`
				TopP        float64 `json:"top_p"`
				NumPredict  int     `json:"num_predict"`
			} `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "analyse ce CV", req.Messages[0].Content)
		assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)
		assert.InDelta(t, 0.9, req.Options.TopP, 1e-9)
		assert.Equal(t, 1000, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": `{"skills":[]}`}})
	}))
	defer srv.Close()

	c := ollama.New(srv.URL, "llama3.2:3b", 5*time.Second)
	got, err := c.Chat(context.Background(), "analyse ce CV", domain.GenerationOptions{Temperature: 0.2, TopP: 0.9, NumPredict: 1000})
	require.NoError(t, err)
	assert.Equal(t, `{"skills":[]}`, got)
}

func TestChat_HTTP500(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := ollama.New(srv.URL, "m", time.Second)
	_, err := c.Chat(context.Background(), "p", domain.GenerationOptions{})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestChat_NetworkError(t *testing.T) {
	t.Parallel()
	c := ollama.New("http://127.0.0.1:1", "m", 500*time.Millisecond)
	_, err := c.Chat(context.Background(), "p", domain.GenerationOptions{})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestChat_MalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pas du json"))
	}))
	defer srv.Close()

	c := ollama.New(srv.URL, "m", time.Second)
	_, err := c.Chat(context.Background(), "p", domain.GenerationOptions{})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestPing(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := ollama.New(srv.URL, "m", time.Second)
	require.NoError(t, c.Ping(context.Background()))

	bad := ollama.New("http://127.0.0.1:1", "m", 500*time.Millisecond)
	require.Error(t, bad.Ping(context.Background()))
}
