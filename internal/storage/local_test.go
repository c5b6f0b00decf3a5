package storage

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestLocalStoreSave(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	path, err := store.Save(context.Background(), "avatar.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("content = %q, want png-bytes", data)
	}
}

func TestLocalStoreStripsDirectoryTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	path, err := store.Save(context.Background(), "../../etc/passwd", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path %q escaped upload dir %q", path, dir)
	}
}
