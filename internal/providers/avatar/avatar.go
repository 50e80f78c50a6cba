package avatar

import (
	"context"
	"strings"

	"reelmate/internal/domain"
)

// RenderRequest describes one avatar video render. AudioURL points at the
// speech track the avatar lip-syncs to.
type RenderRequest struct {
	JobID       string
	AvatarID    string
	AudioURL    string
	Script      string
	AspectRatio string
	Background  string
	Quality     domain.Quality
}

// Render carries the downloaded artifacts of a finished render.
type Render struct {
	Video           []byte
	Thumbnail       []byte
	DurationSeconds float64
	Provider        string
}

// Renderer produces avatar videos.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*Render, error)
}

// New returns the HeyGen client when an API key is configured and the
// synthetic renderer otherwise.
func New(opts HeyGenOptions) Renderer {
	if strings.TrimSpace(opts.APIKey) == "" {
		return NewSynthetic()
	}
	return NewHeyGen(opts)
}

// Dimensions maps an aspect ratio and quality tier to output pixels.
func Dimensions(aspectRatio string, quality domain.Quality) (width, height int) {
	short := 720
	switch quality {
	case domain.QualityHD:
		short = 1080
	case domain.Quality4K:
		short = 2160
	}
	long := short * 16 / 9
	switch strings.TrimSpace(aspectRatio) {
	case "16:9":
		return long, short
	case "1:1":
		return short, short
	default:
		return short, long
	}
}
