package domain

import "encoding/json"

var knownSettingsKeys = map[string]struct{}{
	"quality":      {},
	"aspect_ratio": {},
	"background":   {},
}

// MarshalJSON flattens Extra next to the known keys.
func (s GenerationSettings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		if _, known := knownSettingsKeys[k]; known {
			continue
		}
		out[k] = v
	}
	if s.Quality != "" {
		out["quality"] = s.Quality
	}
	if s.AspectRatio != "" {
		out["aspect_ratio"] = s.AspectRatio
	}
	if s.Background != "" {
		out["background"] = s.Background
	}
	return json.Marshal(out)
}

// UnmarshalJSON keeps unknown keys in Extra.
func (s *GenerationSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = GenerationSettings{}
	for k, v := range raw {
		switch k {
		case "quality":
			if str, ok := v.(string); ok {
				s.Quality = Quality(str)
			}
		case "aspect_ratio":
			if str, ok := v.(string); ok {
				s.AspectRatio = str
			}
		case "background":
			if str, ok := v.(string); ok {
				s.Background = str
			}
		default:
			if s.Extra == nil {
				s.Extra = map[string]any{}
			}
			s.Extra[k] = v
		}
	}
	return nil
}
