package file

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CheckpointStore = (*Store)(nil)

// filePerm matches the permissions of a file written by hand.
const filePerm = 0o644

// Store is a write-replace checkpoint file.
// Each Save writes a temp file in the target directory and renames it over
// the checkpoint, so readers see the old or the new set and never a mix.
type Store struct {
	path string
}

// NewStore creates a checkpoint store at path. The file is not created
// until the first Save.
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// ResumeFileName returns the checkpoint file name for a job.
func ResumeFileName(jobID string) string {
	return fmt.Sprintf("upload_resume_%s.txt", jobID)
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the checkpoint with items, one per line. An empty set
// produces a zero-length file.
func (s *Store) Save(items []domain.WorkItem) error {
	var buf bytes.Buffer
	for _, item := range items {
		buf.WriteString(string(item))
		buf.WriteByte('\n')
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// Load reads the checkpoint.
func (s *Store) Load() ([]domain.WorkItem, error) {
	return ReadItems(s.path)
}

// ReadItems reads work items from a list file. Surrounding whitespace
// and line endings are trimmed and blank lines dropped.
func ReadItems(path string) ([]domain.WorkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ParseItems(f)
}

// ParseItems reads one work item per line from r.
func ParseItems(r io.Reader) ([]domain.WorkItem, error) {
	var items []domain.WorkItem

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items = append(items, domain.WorkItem(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return items, nil
}

func writeFileAtomic(dst string, data []byte) error {
	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	tmpName = ""

	syncDirBestEffort(dir)
	return nil
}

// syncDirBestEffort persists the rename. Errors are ignored because not
// every platform supports syncing a directory.
func syncDirBestEffort(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
