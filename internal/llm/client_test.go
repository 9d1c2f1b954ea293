package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("https://api.example", "", "gpt-4o-mini", time.Second)
	if c.Configured() {
		t.Fatalf("client without key should not be configured")
	}
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0, 0); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_Complete_Success(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "cmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "  gold \n"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", time.Second)
	got, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "classify"},
		{Role: "user", Content: "should I buy gold?"},
	}, 0, 50)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "gold" {
		t.Fatalf("content = %q; want trimmed %q", got, "gold")
	}
	if gotReq.Model != "gpt-4o-mini" || len(gotReq.Messages) != 2 || gotReq.MaxTokens != 50 {
		t.Fatalf("request body unexpected: %+v", gotReq)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0 {
		t.Fatalf("temperature should be sent explicitly, got %+v", gotReq.Temperature)
	}
}

func TestClient_Complete_Failures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "sk-test", "m", time.Second)
		if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, 0, 0); err == nil {
			t.Fatalf("expected error on 429")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "sk-test", "m", time.Second)
		if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, 0, 0); err == nil {
			t.Fatalf("expected error on empty choices")
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		c := NewClient(srv.URL, "sk-test", "m", time.Second)
		if _, err := c.Complete(ctx, []Message{{Role: "user", Content: "x"}}, 0, 0); err == nil {
			t.Fatalf("expected error on cancelled context")
		}
	})
}
