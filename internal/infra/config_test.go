package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaultsToSQLiteWithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOB_STORE", "")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobStore != JobStoreSQLite {
		t.Fatalf("JobStore = %q, want %q", cfg.JobStore, JobStoreSQLite)
	}
	if cfg.StorageBaseURL != "http://localhost:8080/static" {
		t.Fatalf("StorageBaseURL = %q", cfg.StorageBaseURL)
	}
	if !cfg.InlineWorkers {
		t.Fatal("InlineWorkers should default to true")
	}
	if cfg.JobTimeout != 10*time.Minute {
		t.Fatalf("JobTimeout = %s, want 10m", cfg.JobTimeout)
	}
}

func TestLoadConfigPicksPostgresWhenDatabaseURLSet(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JOB_STORE", "")
	t.Setenv("PORT", "1919")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobStore != JobStorePostgres {
		t.Fatalf("JobStore = %q, want %q", cfg.JobStore, JobStorePostgres)
	}
	if cfg.StorageBaseURL != "http://localhost:1919/static" {
		t.Fatalf("StorageBaseURL = %q", cfg.StorageBaseURL)
	}
}

func TestLoadConfigRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOB_STORE", "postgres")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for postgres store without DATABASE_URL")
	}
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("JOB_STORE", "mongo")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported store")
	}
}

func TestLoadConfigStaleAfterMustExceedJobTimeout(t *testing.T) {
	cases := []struct {
		name       string
		staleAfter string
		wantErr    bool
	}{
		{name: "shorter", staleAfter: "300", wantErr: true},
		{name: "equal", staleAfter: "600", wantErr: true},
		{name: "longer", staleAfter: "601", wantErr: false},
		{name: "disabled", staleAfter: "0", wantErr: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("JOB_STORE", "sqlite")
			t.Setenv("JOB_TIMEOUT_SECONDS", "600")
			t.Setenv("STALE_AFTER_SECONDS", tc.staleAfter)

			_, err := LoadConfig()
			if tc.wantErr && err == nil {
				t.Fatal("expected error for stale cutoff within the job timeout")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("LoadConfig returned error: %v", err)
			}
		})
	}
}

func TestLoadConfigParsesListsAndBools(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOB_STORE", "sqlite")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,http://localhost:3000 ")
	t.Setenv("INLINE_WORKERS", "false")
	t.Setenv("WORKER_COUNT", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
	if cfg.InlineWorkers {
		t.Fatal("InlineWorkers should be false")
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
}
