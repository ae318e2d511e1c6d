package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenRouterCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "http://example.test" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated text"}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient(OpenRouterOptions{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Referrer: "http://example.test",
		AppName:  "research",
	})
	if err != nil {
		t.Fatalf("NewOpenRouterClient: %v", err)
	}

	text, err := c.Complete(context.Background(), CompletionRequest{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "generated text" {
		t.Fatalf("text = %q", text)
	}
}

func TestOpenRouterRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenRouterClient: %v", err)
	}
	_, err = c.Complete(context.Background(), CompletionRequest{Model: "m", Prompt: "p"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if !pe.Transient || pe.Status != http.StatusTooManyRequests {
		t.Fatalf("ProviderError = %+v, want transient 429", pe)
	}
}

func TestDeepSeekUnauthorizedIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewDeepSeekClient(DeepSeekOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewDeepSeekClient: %v", err)
	}
	_, err = c.Complete(context.Background(), CompletionRequest{Model: "m", Prompt: "p"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if pe.Transient {
		t.Fatal("401 must be permanent")
	}
}

func TestDeepSeekFoldsSystemIntoUserMessage(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c, err := NewDeepSeekClient(DeepSeekOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewDeepSeekClient: %v", err)
	}
	if _, err := c.Complete(context.Background(), CompletionRequest{Model: "m", System: "frame", Prompt: "body"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(gotBody, `"role":"user"`) || strings.Contains(gotBody, `"role":"system"`) {
		t.Fatalf("request body = %s, want system folded into user", gotBody)
	}
}
