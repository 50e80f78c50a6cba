package storage

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreWriteReadAndURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, JobKey("job-1", "audio.mp3"), []byte("mp3"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "jobs/job-1/audio.mp3" {
		t.Fatalf("key = %q", key)
	}
	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(data) != "mp3" {
		t.Fatalf("Read = %q, want mp3", data)
	}

	url := store.PublicURL(key)
	if url != "http://localhost:8080/static/jobs/job-1/audio.mp3" {
		t.Fatalf("PublicURL = %q", url)
	}
	back, ok := store.KeyFromURL(url)
	if !ok || back != key {
		t.Fatalf("KeyFromURL = %q, %v", back, ok)
	}
	if _, ok := store.KeyFromURL("https://cdn.example.com/v.mp4"); ok {
		t.Fatal("KeyFromURL accepted a foreign URL")
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	for _, key := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) succeeded, want error", key)
		}
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Read(context.Background(), "jobs/none/video.mp4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read error = %v, want ErrNotFound", err)
	}
}
