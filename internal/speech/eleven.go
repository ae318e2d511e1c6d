// Package speech synthesizes audio from generated text.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// SynthesisError reports a failed audio synthesis. It only ever affects
// the audio-fetch path, never the owning text job.
type SynthesisError struct {
	Reason string
	Status int
}

func (e *SynthesisError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("synthesis failed (status %d): %s", e.Status, e.Reason)
	}
	return "synthesis failed: " + e.Reason
}

// VoiceParams selects the synthesis voice and output encoding. They are
// part of the audio cache key.
type VoiceParams struct {
	VoiceID string
	ModelID string
	Format  string
}

// CacheSuffix renders the params for audio cache keys.
func (v VoiceParams) CacheSuffix() string {
	format := v.Format
	if format == "" {
		format = "mp3"
	}
	return v.VoiceID + "_" + v.ModelID + "." + format
}

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, params VoiceParams) ([]byte, error)
}

// ElevenOptions configures the ElevenLabs client.
type ElevenOptions struct {
	APIKey      string
	BaseURL     string
	MaxChars    int
	Concurrency int
	HTTPClient  *http.Client
}

// ElevenClient synthesizes speech through the ElevenLabs API. Long texts
// are chunked at sentence boundaries and synthesized concurrently, then
// concatenated in order. MP3 frame streams concatenate cleanly enough
// for playback.
type ElevenClient struct {
	apiKey      string
	baseURL     string
	maxChars    int
	concurrency int
	client      *http.Client
}

func NewElevenClient(opts ElevenOptions) (*ElevenClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("elevenlabs api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = 2000
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &ElevenClient{
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		maxChars:    maxChars,
		concurrency: concurrency,
		client:      client,
	}, nil
}

type elevenRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize converts text into one audio byte stream.
func (c *ElevenClient) Synthesize(ctx context.Context, text string, params VoiceParams) ([]byte, error) {
	chunks := ChunkText(text, c.maxChars)
	if len(chunks) == 0 {
		return nil, &SynthesisError{Reason: "no synthesizable text"}
	}

	parts := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			audio, err := c.synthesizeChunk(gctx, chunk, params)
			if err != nil {
				return err
			}
			parts[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bytes.Join(parts, nil), nil
}

func (c *ElevenClient) synthesizeChunk(ctx context.Context, chunk string, params VoiceParams) ([]byte, error) {
	payload := elevenRequest{Text: chunk, ModelID: params.ModelID}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, &SynthesisError{Reason: "encode request: " + err.Error()}
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, params.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, &SynthesisError{Reason: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SynthesisError{Reason: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &SynthesisError{Status: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Reason: "read audio: " + err.Error()}
	}
	if len(audio) == 0 {
		return nil, &SynthesisError{Reason: "empty audio response"}
	}
	return audio, nil
}

var _ Synthesizer = (*ElevenClient)(nil)
