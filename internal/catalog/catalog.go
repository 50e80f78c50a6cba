// Package catalog resolves avatar and voice selections into provider tokens.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelmate/internal/domain"
)

const defaultVoiceToken = "alloy"

// voiceTokens maps normalized voice characteristics to OpenAI TTS voices.
var voiceTokens = map[string]string{
	"us female friendly":     "nova",
	"us female professional": "shimmer",
	"us male neutral":        "onyx",
	"us male energetic":      "echo",
	"uk female warm":         "shimmer",
	"uk male narrator":       "fable",
	"au female casual":       "nova",
	"neutral":                "alloy",
}

var defaultAvatars = []domain.Avatar{
	{ID: "1", Name: "Sarah", Gender: "female", Style: "casual", ProviderID: "Abigail_expressive_2024112501"},
	{ID: "2", Name: "Marcus", Gender: "male", Style: "business", ProviderID: "Brandon_Office_Sitting_Front_public"},
	{ID: "3", Name: "Emma", Gender: "female", Style: "lifestyle", ProviderID: "Daisy-inskirt-20220818"},
	{ID: "4", Name: "James", Gender: "male", Style: "energetic", ProviderID: "Tyler-incasualsuit-20220721"},
	{ID: "5", Name: "Priya", Gender: "female", Style: "professional", ProviderID: "Anna_public_3_20240108", PremiumOnly: true},
}

var defaultVoices = []domain.Voice{
	{ID: "1", DisplayName: "US Male Neutral", Language: "en", Accent: "US", Gender: "male", Tone: "neutral"},
	{ID: "2", DisplayName: "US Female Friendly", Language: "en", Accent: "US", Gender: "female", Tone: "friendly"},
	{ID: "3", DisplayName: "US Female Professional", Language: "en", Accent: "US", Gender: "female", Tone: "professional"},
	{ID: "4", DisplayName: "US Male Energetic", Language: "en", Accent: "US", Gender: "male", Tone: "energetic"},
	{ID: "5", DisplayName: "UK Female Warm", Language: "en", Accent: "UK", Gender: "female", Tone: "warm"},
	{ID: "6", DisplayName: "UK Male Narrator", Language: "en", Accent: "UK", Gender: "male", Tone: "narrator"},
	{ID: "7", DisplayName: "AU Female Casual", Language: "en", Accent: "AU", Gender: "female", Tone: "casual"},
}

// Catalog is an immutable lookup of avatars and voices.
type Catalog struct {
	avatars map[string]domain.Avatar
	voices  map[string]domain.Voice
}

// New builds a catalog from the given entries. Empty slices fall back to the
// built-in catalog.
func New(avatars []domain.Avatar, voices []domain.Voice) *Catalog {
	if len(avatars) == 0 {
		avatars = defaultAvatars
	}
	if len(voices) == 0 {
		voices = defaultVoices
	}
	c := &Catalog{
		avatars: make(map[string]domain.Avatar, len(avatars)),
		voices:  make(map[string]domain.Voice, len(voices)),
	}
	for _, a := range avatars {
		c.avatars[a.ID] = a
	}
	for _, v := range voices {
		c.voices[v.ID] = v
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(nil, nil)
}

// Avatar looks up an avatar by id.
func (c *Catalog) Avatar(id string) (domain.Avatar, error) {
	a, ok := c.avatars[strings.TrimSpace(id)]
	if !ok {
		return domain.Avatar{}, fmt.Errorf("avatar %q: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

// Voice looks up a voice by id.
func (c *Catalog) Voice(id string) (domain.Voice, error) {
	v, ok := c.voices[strings.TrimSpace(id)]
	if !ok {
		return domain.Voice{}, fmt.Errorf("voice %q: %w", id, domain.ErrNotFound)
	}
	return v, nil
}

// Avatars lists avatars ordered by id.
func (c *Catalog) Avatars() []domain.Avatar {
	out := make([]domain.Avatar, 0, len(c.avatars))
	for _, a := range c.avatars {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Voices lists voices ordered by id.
func (c *Catalog) Voices() []domain.Voice {
	out := make([]domain.Voice, 0, len(c.voices))
	for _, v := range c.voices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// VoiceToken maps a voice id to the TTS provider voice token using the
// voice's human-readable characteristics. Unknown characteristics fall back
// to the provider's neutral voice.
func (c *Catalog) VoiceToken(voiceID string) (string, error) {
	v, err := c.Voice(voiceID)
	if err != nil {
		return "", err
	}
	return c.TokenForName(v.DisplayName), nil
}

// TokenForName maps a display name such as "US Male Neutral" to a token.
func (c *Catalog) TokenForName(displayName string) string {
	// Casers are stateful; build one per call.
	key := cases.Lower(language.English).String(strings.Join(strings.Fields(displayName), " "))
	if token, ok := voiceTokens[key]; ok {
		return token
	}
	return defaultVoiceToken
}
