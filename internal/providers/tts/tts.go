package tts

import (
	"context"
	"strings"
)

// Request asks for Text to be spoken with the provider voice token Voice.
type Request struct {
	Text  string
	Voice string
}

// Audio is a rendered speech track.
type Audio struct {
	Data        []byte
	ContentType string
	Extension   string
	Provider    string
}

// Synthesizer turns script text into speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

// New returns the OpenAI client when an API key is configured and the
// synthetic generator otherwise.
func New(opts OpenAIOptions) Synthesizer {
	if strings.TrimSpace(opts.APIKey) == "" {
		return NewSynthetic()
	}
	return NewOpenAI(opts)
}
