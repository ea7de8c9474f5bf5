package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadSubmitContentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.txt")
	if err := os.WriteFile(path, []byte("!!Task Summary!!: Call mom\n"), 0o600); err != nil {
		t.Fatalf("writing task file: %v", err)
	}

	content, err := readSubmitContent(path, strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("readSubmitContent() error: %v", err)
	}
	if content != "!!Task Summary!!: Call mom\n" {
		t.Errorf("content = %q", content)
	}
}

func TestReadSubmitContentFromStdin(t *testing.T) {
	content, err := readSubmitContent("", strings.NewReader("!!Task Summary!!: Call mom\n"))
	if err != nil {
		t.Fatalf("readSubmitContent() error: %v", err)
	}
	if !strings.Contains(content, "Call mom") {
		t.Errorf("content = %q", content)
	}
}

func TestReadSubmitContentMissingFile(t *testing.T) {
	if _, err := readSubmitContent(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
