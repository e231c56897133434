package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/glasshabit/internal/filex"
)

type FileSink struct {
	dir string
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "backups"
	}
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FileSink{dir: abs}, nil
}

func (s *FileSink) Put(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(s.dir, name), data, 0o600)
}

func (s *FileSink) Get(_ context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", name, err)
	}
	return data, nil
}
