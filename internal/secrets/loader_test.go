package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(Source{Name: "hf key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("   "), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Load(Source{Name: "hf key", File: path})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{File: filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInlineThenEnv(t *testing.T) {
	t.Setenv("JOB_RECOMMENDER_TEST_KEY", " env-value ")

	got, err := Load(Source{Value: " inline ", Env: "JOB_RECOMMENDER_TEST_KEY"})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline value, got %q (%v)", got, err)
	}

	got, err = Load(Source{Env: "JOB_RECOMMENDER_TEST_KEY"})
	if err != nil || got != "env-value" {
		t.Fatalf("expected env value, got %q (%v)", got, err)
	}
}

func TestLoadNotConfigured(t *testing.T) {
	t.Setenv("JOB_RECOMMENDER_TEST_KEY", "")

	_, err := Load(Source{Name: "groq api key", Env: "JOB_RECOMMENDER_TEST_KEY"})
	if err == nil || !strings.Contains(err.Error(), "JOB_RECOMMENDER_TEST_KEY") {
		t.Fatalf("expected hint about env variable, got %v", err)
	}

	_, err = Load(Source{})
	if err == nil || err.Error() != "secret is not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}
