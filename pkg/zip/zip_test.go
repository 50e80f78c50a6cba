package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestWriteRoundTripsEntries(t *testing.T) {
	mod := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := Write(&buf, []Entry{
		{Name: "video.mp4", Data: []byte("video-bytes"), Modified: mod},
		{Name: "audio.mp3", Data: []byte("audio-bytes"), Modified: mod},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 files, got %d", len(zr.File))
	}
	f := zr.File[0]
	if f.Name != "video.mp4" || f.Method != zip.Deflate {
		t.Fatalf("unexpected header %+v", f.FileHeader)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "video-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteRejectsDuplicateNames(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Entry{{Name: "a"}, {Name: "a"}})
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
}
