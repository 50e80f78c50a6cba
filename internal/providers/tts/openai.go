package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelmate/internal/domain"
)

const (
	openAIProviderName    = "openai"
	openAIDefaultTimeout  = 60 * time.Second
	defaultOpenAITTSModel = "tts-1"
	// maxAudioBytes bounds a single speech response.
	maxAudioBytes = 50 << 20
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	// MaxAudioBytes caps the speech response; zero keeps the default.
	MaxAudioBytes int64
}

// OpenAIClient calls the OpenAI speech endpoint.
type OpenAIClient struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	maxAudio     int64
}

type openAISpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func NewOpenAI(opts OpenAIOptions) *OpenAIClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAITTSModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	maxAudio := opts.MaxAudioBytes
	if maxAudio <= 0 {
		maxAudio = maxAudioBytes
	}
	return &OpenAIClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		maxAudio:     maxAudio,
	}
}

func (o *OpenAIClient) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	payload := openAISpeechRequest{
		Model:          o.model,
		Input:          req.Text,
		Voice:          req.Voice,
		ResponseFormat: "mp3",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", &buf)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: tts request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: tts status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, o.maxAudio+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read tts audio: %v", domain.ErrProviderFailure, err)
	}
	if int64(len(data)) > o.maxAudio {
		return nil, fmt.Errorf("%w: tts audio exceeds %d bytes", domain.ErrProviderFailure, o.maxAudio)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: tts returned empty audio", domain.ErrProviderFailure)
	}
	return &Audio{
		Data:        data,
		ContentType: "audio/mpeg",
		Extension:   "mp3",
		Provider:    openAIProviderName,
	}, nil
}

var _ Synthesizer = (*OpenAIClient)(nil)
