package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "doc-1_crops.pdf", strings.NewReader("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := storage.Open(ctx, "doc-1_crops.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "payload" {
		t.Errorf("content = %q", raw)
	}
}

func TestOpenMissingKeyFails(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := storage.Open(context.Background(), "absent.pdf"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestKeyCannotEscapeBaseDir(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "uploads")
	storage, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"../outside.txt", "a/../../outside.txt"} {
		// Traversal segments are stripped, so writes stay under the base dir.
		if err := storage.Save(ctx, key, strings.NewReader("x")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(parent, "outside.txt")); err == nil {
			t.Errorf("Save(%q) wrote outside the base dir", key)
		}
	}
}
