package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelmate/internal/domain"
)

const (
	heygenProviderName   = "heygen"
	heygenDefaultTimeout = 60 * time.Second
	defaultPollInterval  = 5 * time.Second
	maxVideoBytes        = 512 << 20
	maxThumbnailBytes    = 10 << 20
	defaultBackground    = "#FFFFFF"
)

type HeyGenOptions struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
	// Download caps; zero keeps the defaults.
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
}

// HeyGenClient submits a render and polls its status until it settles.
type HeyGenClient struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
	maxVideo     int64
	maxThumbnail int64
}

type heygenGenerateRequest struct {
	VideoInputs []heygenVideoInput `json:"video_inputs"`
	Dimension   heygenDimension    `json:"dimension"`
	Caption     bool               `json:"caption"`
	Title       string             `json:"title,omitempty"`
}

type heygenVideoInput struct {
	Character  heygenCharacter  `json:"character"`
	Voice      heygenVoice      `json:"voice"`
	Background heygenBackground `json:"background"`
}

type heygenCharacter struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type heygenVoice struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type heygenBackground struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type heygenDimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type heygenError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type heygenGenerateResponse struct {
	Error *heygenError `json:"error"`
	Data  struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type heygenStatusResponse struct {
	Code int `json:"code"`
	Data struct {
		Status       string       `json:"status"`
		VideoURL     string       `json:"video_url"`
		ThumbnailURL string       `json:"thumbnail_url"`
		Duration     float64      `json:"duration"`
		Error        *heygenError `json:"error"`
	} `json:"data"`
}

func NewHeyGen(opts HeyGenOptions) *HeyGenClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.heygen.com"
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: heygenDefaultTimeout}
	}
	maxVideo := opts.MaxVideoBytes
	if maxVideo <= 0 {
		maxVideo = maxVideoBytes
	}
	maxThumbnail := opts.MaxThumbnailBytes
	if maxThumbnail <= 0 {
		maxThumbnail = maxThumbnailBytes
	}
	return &HeyGenClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		pollInterval: interval,
		client:       client,
		maxVideo:     maxVideo,
		maxThumbnail: maxThumbnail,
	}
}

func (h *HeyGenClient) Render(ctx context.Context, req RenderRequest) (*Render, error) {
	videoID, err := h.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	status, err := h.await(ctx, videoID)
	if err != nil {
		return nil, err
	}
	video, err := h.download(ctx, status.Data.VideoURL, h.maxVideo)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	out := &Render{
		Video:           video,
		DurationSeconds: status.Data.Duration,
		Provider:        heygenProviderName,
	}
	if status.Data.ThumbnailURL != "" {
		thumb, err := h.download(ctx, status.Data.ThumbnailURL, h.maxThumbnail)
		if err != nil {
			return nil, fmt.Errorf("download thumbnail: %w", err)
		}
		out.Thumbnail = thumb
	}
	return out, nil
}

func (h *HeyGenClient) submit(ctx context.Context, req RenderRequest) (string, error) {
	width, height := Dimensions(req.AspectRatio, req.Quality)
	background := strings.TrimSpace(req.Background)
	if background == "" {
		background = defaultBackground
	}
	payload := heygenGenerateRequest{
		VideoInputs: []heygenVideoInput{{
			Character:  heygenCharacter{Type: "avatar", AvatarID: req.AvatarID, AvatarStyle: "normal"},
			Voice:      heygenVoice{Type: "audio", AudioURL: req.AudioURL},
			Background: heygenBackground{Type: "color", Value: background},
		}},
		Dimension: heygenDimension{Width: width, Height: height},
		Title:     req.JobID,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode render request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v2/video/generate", &buf)
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	var resp heygenGenerateResponse
	if err := h.do(httpReq, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("%w: avatar submit: %s", domain.ErrProviderFailure, resp.Error.Message)
	}
	if resp.Data.VideoID == "" {
		return "", fmt.Errorf("%w: avatar submit returned no video id", domain.ErrProviderFailure)
	}
	return resp.Data.VideoID, nil
}

func (h *HeyGenClient) await(ctx context.Context, videoID string) (*heygenStatusResponse, error) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		status, err := h.status(ctx, videoID)
		if err != nil {
			return nil, err
		}
		switch status.Data.Status {
		case "completed":
			if status.Data.VideoURL == "" {
				return nil, fmt.Errorf("%w: avatar render completed without video url", domain.ErrProviderFailure)
			}
			return status, nil
		case "failed":
			msg := "render failed"
			if status.Data.Error != nil && status.Data.Error.Message != "" {
				msg = status.Data.Error.Message
			}
			return nil, fmt.Errorf("%w: avatar render: %s", domain.ErrProviderFailure, msg)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *HeyGenClient) status(ctx context.Context, videoID string) (*heygenStatusResponse, error) {
	endpoint := h.baseURL + "/v1/video_status.get?video_id=" + url.QueryEscape(videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	var resp heygenStatusResponse
	if err := h.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *HeyGenClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", h.apiKey)
	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: avatar request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: avatar status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode avatar response: %v", domain.ErrProviderFailure, err)
	}
	return nil
}

// download fetches rawURL and fails rather than truncate a body over limit.
func (h *HeyGenClient) download(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: download status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read download: %v", domain.ErrProviderFailure, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: artifact exceeds %d bytes", domain.ErrProviderFailure, limit)
	}
	return data, nil
}

var _ Renderer = (*HeyGenClient)(nil)
