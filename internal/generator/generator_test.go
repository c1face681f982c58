package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted(t *testing.T) {
	ctx := context.Background()

	t.Run("queue before rules before default", func(t *testing.T) {
		s := &Scripted{
			Rules:   []Rule{{Contains: "ethical", Reply: "GO"}},
			Default: "WAIT",
		}
		s.Enqueue("STOP")

		got, err := s.Generate(ctx, "ethical question")
		require.NoError(t, err)
		assert.Equal(t, "STOP", got)

		got, _ = s.Generate(ctx, "ethical question")
		assert.Equal(t, "GO", got)

		got, _ = s.Generate(ctx, "other")
		assert.Equal(t, "WAIT", got)

		assert.Equal(t, []string{"ethical question", "ethical question", "other"}, s.Calls())
	})

	t.Run("echoes prompt", func(t *testing.T) {
		s := &Scripted{Default: "GO", EchoPrompt: true}
		got, err := s.Generate(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, "prompt\nGO", got)
	})

	t.Run("returns configured error", func(t *testing.T) {
		s := &Scripted{Err: errors.New("offline")}
		_, err := s.Generate(ctx, "x")
		assert.EqualError(t, err, "offline")
	})
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, 100, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Should I?", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"GO, do it."}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(srv.URL+"/", "secret", "llama3", 100)
	got, err := o.Generate(context.Background(), "Should I?")
	require.NoError(t, err)
	assert.Equal(t, "GO, do it.", got)
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http status", http.StatusInternalServerError, `boom`, "status 500"},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`, "bad model"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no completion"},
		{"bad json", http.StatusOK, `{`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI(srv.URL, "", "m", 0).Generate(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, Config{DefaultReply: "WAIT"})
	require.NoError(t, err)
	assert.IsType(t, &Scripted{}, g)

	g, err = New(ctx, Config{Backend: BackendOpenAI, ModelName: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, g)

	_, err = New(ctx, Config{Backend: "telepathy"})
	assert.Error(t, err)

	t.Setenv("GEMINI_API_KEY", "")
	_, err = New(ctx, Config{Backend: BackendGenAI})
	assert.Error(t, err)
}
