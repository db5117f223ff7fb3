// Package filesave writes exported documents to disk.
package filesave

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"stthebrew/internal/export"
)

const maxCollisions = 100

// DirSaver writes documents into a fixed directory, never overwriting an
// existing file.
type DirSaver struct {
	dir    string
	logger zerolog.Logger
}

func NewDirSaver(dir string, logger zerolog.Logger) *DirSaver {
	return &DirSaver{dir: dir, logger: logger}
}

// Save implements ports.FileSaver.
func (s *DirSaver) Save(ctx context.Context, doc export.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path, err := availablePath(s.dir, doc.Filename)
	if err != nil {
		return err
	}
	if err := WriteFile(path, doc.Content); err != nil {
		return err
	}
	s.logger.Info().Str("path", path).Msg("document saved")
	return nil
}

// availablePath returns dir/name, or dir/name-N.ext when that is taken.
func availablePath(dir string, name string) (string, error) {
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i <= maxCollisions; i++ {
		candidate := filepath.Join(dir, name)
		if i > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		}
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// WriteFile writes content through a temporary file in the target directory
// and renames it into place. The temporary file is removed on any failure.
func WriteFile(path string, content []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".stt-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
