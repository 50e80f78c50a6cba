package catalog

import (
	"errors"
	"testing"

	"reelmate/internal/domain"
)

func TestVoiceToken(t *testing.T) {
	t.Parallel()
	c := Default()
	cases := []struct {
		voiceID string
		want    string
	}{
		{voiceID: "1", want: "onyx"},
		{voiceID: "2", want: "nova"},
		{voiceID: "6", want: "fable"},
	}
	for _, tc := range cases {
		got, err := c.VoiceToken(tc.voiceID)
		if err != nil {
			t.Fatalf("VoiceToken(%q) returned error: %v", tc.voiceID, err)
		}
		if got != tc.want {
			t.Fatalf("VoiceToken(%q) = %q, want %q", tc.voiceID, got, tc.want)
		}
	}
}

func TestVoiceTokenUnknownVoice(t *testing.T) {
	_, err := Default().VoiceToken("999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestTokenForNameNormalizes(t *testing.T) {
	c := Default()
	if got := c.TokenForName("  us   MALE neutral "); got != "onyx" {
		t.Fatalf("TokenForName() = %q, want %q", got, "onyx")
	}
	if got := c.TokenForName("Klingon Baritone"); got != defaultVoiceToken {
		t.Fatalf("TokenForName() = %q, want %q", got, defaultVoiceToken)
	}
}

func TestCustomCatalog(t *testing.T) {
	c := New([]domain.Avatar{{ID: "a", Name: "Solo"}}, []domain.Voice{{ID: "v", DisplayName: "UK Male Narrator"}})
	if _, err := c.Avatar("1"); err == nil {
		t.Fatal("expected built-in avatar to be absent from custom catalog")
	}
	if got := len(c.Avatars()); got != 1 {
		t.Fatalf("len(Avatars()) = %d, want 1", got)
	}
	token, err := c.VoiceToken("v")
	if err != nil {
		t.Fatalf("VoiceToken returned error: %v", err)
	}
	if token != "fable" {
		t.Fatalf("VoiceToken = %q, want fable", token)
	}
}
