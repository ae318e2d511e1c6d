package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestSynthesizeConcatenatesChunksInOrder(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if got := r.Header.Get("xi-api-key"); got != "voice-key" {
			t.Errorf("xi-api-key = %q", got)
		}
		fmt.Fprintf(w, "[audio-%d]", n)
	}))
	defer srv.Close()

	c, err := NewElevenClient(ElevenOptions{
		APIKey:      "voice-key",
		BaseURL:     srv.URL,
		MaxChars:    24,
		Concurrency: 1,
	})
	if err != nil {
		t.Fatalf("NewElevenClient: %v", err)
	}

	text := "First sentence here. Second sentence here. Third sentence here."
	audio, err := c.Synthesize(context.Background(), text, VoiceParams{VoiceID: "v1", ModelID: "m1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("calls = %d, expected chunked synthesis", calls.Load())
	}
	if !strings.HasPrefix(string(audio), "[audio-1]") {
		t.Fatalf("audio = %q, chunks out of order", audio)
	}
}

func TestSynthesizeProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewElevenClient(ElevenOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewElevenClient: %v", err)
	}
	_, err = c.Synthesize(context.Background(), "Some text to read.", VoiceParams{VoiceID: "v"})
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("err = %v, want SynthesisError", err)
	}
	if synthErr.Status != http.StatusBadGateway {
		t.Fatalf("Status = %d", synthErr.Status)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c, err := NewElevenClient(ElevenOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewElevenClient: %v", err)
	}
	_, err = c.Synthesize(context.Background(), "   ", VoiceParams{VoiceID: "v"})
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("err = %v, want SynthesisError", err)
	}
}

func TestVoiceParamsCacheSuffix(t *testing.T) {
	p := VoiceParams{VoiceID: "v1", ModelID: "m2"}
	if got := p.CacheSuffix(); got != "v1_m2.mp3" {
		t.Fatalf("CacheSuffix = %q", got)
	}
}
