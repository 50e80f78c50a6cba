package domain

// Avatar is a selectable synthetic presenter.
type Avatar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Style       string `json:"style"`
	ProviderID  string `json:"provider_id"`
	PreviewURL  string `json:"preview_url,omitempty"`
	PremiumOnly bool   `json:"premium_only"`
}

// Voice is a selectable synthetic speech identity. DisplayName encodes the
// human-readable characteristics ("US Male Neutral") that map to a TTS token.
type Voice struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
	Accent      string `json:"accent"`
	Gender      string `json:"gender"`
	Tone        string `json:"tone"`
}
