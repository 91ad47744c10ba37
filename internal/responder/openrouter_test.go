package responder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestClientComplete(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  answer text \n"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	client, err := NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	answer, err := client.Complete(context.Background(), "masked question", "be brief")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "answer text" {
		t.Errorf("answer = %q", answer)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}

	messages := gotReq["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(messages))
	}
	first := messages[0].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("system message = %v", first)
	}
}

func TestClientCompleteErrors(t *testing.T) {
	t.Run("MissingAPIKey", func(t *testing.T) {
		cfg := DefaultConfig()
		if _, err := NewClient(cfg, zap.NewNop()); err == nil {
			t.Fatal("expected error for missing API key")
		}
	})

	t.Run("UpstreamError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "bad key"},
			})
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = server.URL
		cfg.APIKey = "wrong"
		client, err := NewClient(cfg, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := client.Complete(context.Background(), "q", ""); err == nil {
			t.Fatal("expected upstream error")
		}
	})

	t.Run("NoChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = server.URL
		cfg.APIKey = "k"
		client, err := NewClient(cfg, zap.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := client.Complete(context.Background(), "q", ""); err == nil {
			t.Fatal("expected error for empty choices")
		}
	})
}
