package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_Get_ShouldPreferEnvironment(t *testing.T) {
	t.Setenv("OPSCHAT_TEST_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(path, []byte("OPSCHAT_TEST_KEY=from-file\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	v, err := NewStore(path).Get("OPSCHAT_TEST_KEY")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "from-env" {
		t.Errorf("Expected env value to win, got %q", v)
	}
}

func TestStore_Get_ShouldReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	content := "# credentials\n\nSLACK_API_KEY = \"xoxb-123\"\nOTHER=val\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	v, err := NewStore(path).Get("SLACK_API_KEY")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "xoxb-123" {
		t.Errorf("Expected trimmed unquoted value, got %q", v)
	}
}

func TestStore_Get_ShouldSkipCommentsAndBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	content := "# TELEGRAM_BOT_TOKEN=commented-out\nnot a pair\nTELEGRAM_BOT_TOKEN=real-token\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	v, err := NewStore(path).Get("TELEGRAM_BOT_TOKEN")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "real-token" {
		t.Errorf("Expected uncommented value, got %q", v)
	}
}

func TestStore_Get_ShouldReturnNotFoundWithoutFile(t *testing.T) {
	_, err := NewStore("").Get("OPSCHAT_MISSING_KEY")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestStore_Get_ShouldReturnNotFoundForMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope.env")).Get("OPSCHAT_MISSING_KEY")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestStore_Lookup_ShouldReportAbsenceWithBool(t *testing.T) {
	store := NewStore("")
	if _, ok := store.Lookup("OPSCHAT_MISSING_KEY"); ok {
		t.Error("Expected lookup miss")
	}

	t.Setenv("OPSCHAT_PRESENT_KEY", "yes")
	v, ok := store.Lookup("OPSCHAT_PRESENT_KEY")
	if !ok || v != "yes" {
		t.Errorf("Expected hit with value, got %q %v", v, ok)
	}
}
