package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"reelmate/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestOpenAISynthesizeSendsSpeechRequest(t *testing.T) {
	var got openAISpeechRequest
	client := NewOpenAI(OpenAIOptions{
		APIKey:       "sk-test",
		BaseURL:      "https://tts.example.com/v1/",
		Organization: "org-1",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.String() != "https://tts.example.com/v1/audio/speech" {
				t.Fatalf("url = %s", r.URL)
			}
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("OpenAI-Organization") != "org-1" {
				t.Fatalf("organization header = %q", r.Header.Get("OpenAI-Organization"))
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader([]byte("mp3-bytes"))),
				Header:     make(http.Header),
			}, nil
		})},
	})

	audio, err := client.Synthesize(context.Background(), Request{Text: "Hello", Voice: "onyx"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio.Data) != "mp3-bytes" || audio.Provider != openAIProviderName {
		t.Fatalf("unexpected audio: %+v", audio)
	}
	if got.Model != defaultOpenAITTSModel || got.Voice != "onyx" || got.Input != "Hello" || got.ResponseFormat != "mp3" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestOpenAISynthesizeErrors(t *testing.T) {
	cases := []struct {
		name      string
		transport roundTripFunc
		contains  string
	}{
		{
			name: "transport",
			transport: func(r *http.Request) (*http.Response, error) {
				return nil, errors.New("boom")
			},
			contains: "boom",
		},
		{
			name: "status",
			transport: func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(strings.NewReader(`{"error":"rate limited"}`)),
					Header:     make(http.Header),
				}, nil
			},
			contains: "status 429",
		},
		{
			name: "empty",
			transport: func(r *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Header: make(http.Header)}, nil
			},
			contains: "empty audio",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewOpenAI(OpenAIOptions{APIKey: "sk", HTTPClient: &http.Client{Transport: tc.transport}})
			_, err := client.Synthesize(context.Background(), Request{Text: "Hi", Voice: "alloy"})
			if !errors.Is(err, domain.ErrProviderFailure) {
				t.Fatalf("error = %v, want ErrProviderFailure", err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("error %q does not contain %q", err, tc.contains)
			}
		})
	}
}

func TestOpenAISynthesizeRejectsOversizedAudio(t *testing.T) {
	client := NewOpenAI(OpenAIOptions{
		APIKey:        "sk",
		MaxAudioBytes: 4,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("mp3-bytes")), Header: make(http.Header)}, nil
		})},
	})
	_, err := client.Synthesize(context.Background(), Request{Text: "Hi", Voice: "alloy"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want ErrProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "exceeds 4 bytes") {
		t.Fatalf("error %q does not report the size cap", err)
	}
}

func TestNewSelectsSyntheticWithoutKey(t *testing.T) {
	if _, ok := New(OpenAIOptions{APIKey: " "}).(*Synthetic); !ok {
		t.Fatal("expected synthetic synthesizer without api key")
	}
	if _, ok := New(OpenAIOptions{APIKey: "sk"}).(*OpenAIClient); !ok {
		t.Fatal("expected openai synthesizer with api key")
	}
}

func TestSyntheticIsDeterministic(t *testing.T) {
	s := NewSynthetic()
	a, err := s.Synthesize(context.Background(), Request{Text: "Hello", Voice: "nova"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	b, err := s.Synthesize(context.Background(), Request{Text: "Hello", Voice: "nova"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !bytes.Equal(a.Data, b.Data) || !bytes.HasPrefix(a.Data, []byte("ID3")) {
		t.Fatalf("synthetic audio not deterministic: %x vs %x", a.Data, b.Data)
	}
	if _, err := s.Synthesize(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty text")
	}
}
