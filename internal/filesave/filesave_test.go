package filesave

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
)

func doc(name string, content string) export.Document {
	return export.Document{Format: domain.ExportFormatTXT, Filename: name, Content: []byte(content)}
}

func TestDirSaverWritesDocument(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	saver := NewDirSaver(dir, zerolog.Nop())

	if err := saver.Save(context.Background(), doc("a.txt", "שלום")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "שלום" {
		t.Fatalf("unexpected content: %q", data)
	}
	assertNoTempFiles(t, dir)
}

func TestDirSaverNeverOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	saver := NewDirSaver(dir, zerolog.Nop())

	for _, content := range []string{"first", "second", "third"} {
		if err := saver.Save(context.Background(), doc("notes.html", content)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	for name, want := range map[string]string{
		"notes.html":   "first",
		"notes-1.html": "second",
		"notes-2.html": "third",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(data) != want {
			t.Fatalf("%s: got %q err=%v, want %q", name, data, err, want)
		}
	}
}

func TestAvailablePathUsesLastSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s failed: %v", name, err)
		}
	}
	touch("a.txt")
	for i := 1; i < maxCollisions; i++ {
		touch(fmt.Sprintf("a-%d.txt", i))
	}

	got, err := availablePath(dir, "a.txt")
	if err != nil {
		t.Fatalf("expected a free name, got %v", err)
	}
	if want := filepath.Join(dir, fmt.Sprintf("a-%d.txt", maxCollisions)); got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	touch(fmt.Sprintf("a-%d.txt", maxCollisions))
	if _, err := availablePath(dir, "a.txt"); err == nil {
		t.Fatalf("expected an error once every suffix is taken")
	}
}

func TestDirSaverStripsDirectoryFromFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	saver := NewDirSaver(dir, zerolog.Nop())
	if err := saver.Save(context.Background(), doc("../escape.txt", "x")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Fatalf("expected file inside export dir: %v", err)
	}
}

func TestDirSaverHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewDirSaver(dir, zerolog.Nop()).Save(ctx, doc("a.txt", "x")); err == nil {
		t.Fatalf("expected context error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be written, found %d entries", len(entries))
	}
}

func TestWriteFileFailureLeavesNoTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "child"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Renaming a file over a non-empty directory fails.
	if err := WriteFile(target, []byte("data")); err == nil {
		t.Fatalf("expected rename failure")
	}
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".stt-export-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}
