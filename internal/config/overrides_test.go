package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yml")
	data := "labels:\n  mock-hedda: Deutsch (Hedda)\n  \"Microsoft David Desktop\": English (US)\n  empty: \"\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 overrides, got %v", got)
	}
	if got["mock-hedda"] != "Deutsch (Hedda)" || got["Microsoft David Desktop"] != "English (US)" {
		t.Errorf("Unexpected overrides %v", got)
	}
}

func TestLoadOverrides_Missing(t *testing.T) {
	got, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil || got != nil {
		t.Errorf("Expected no overrides and no error, got %v, %v", got, err)
	}
	if got, err := LoadOverrides(""); err != nil || got != nil {
		t.Errorf("Expected nothing for an empty path, got %v, %v", got, err)
	}
}

func TestLoadOverrides_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yml")
	if err := os.WriteFile(path, []byte("labels: [not, a, map]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOverrides(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestWatchOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yml")
	if err := os.WriteFile(path, []byte("labels:\n  a: One\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan map[string]string, 4)
	if err := WatchOverrides(ctx, path, func(m map[string]string) { changes <- m }); err != nil {
		t.Fatalf("WatchOverrides failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("labels:\n  a: Two\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-changes:
		if m["a"] != "Two" {
			t.Errorf("Expected reloaded label, got %v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchOverrides_NoPath(t *testing.T) {
	if err := WatchOverrides(context.Background(), "", func(map[string]string) {}); err == nil {
		t.Error("Expected error without a path")
	}
}
