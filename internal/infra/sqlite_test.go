package infra

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteRefusesSecondOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")

	first, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	if _, err := OpenSQLite(context.Background(), path); !errors.Is(err, ErrStoreLocked) {
		t.Fatalf("second OpenSQLite error = %v, want ErrStoreLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	second, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite after close returned error: %v", err)
	}
	_ = second.Close()
}
