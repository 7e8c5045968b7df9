package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/semaphore"
)

const (
	tempPattern = ".upload-*.tmp"
	filePerm    = 0644
)

// ErrNotRegularFile is returned when a name is already taken by a
// directory, symlink or other non-regular file.
var ErrNotRegularFile = errors.New("existing entry is not a regular file")

// DiskStore writes files into a single directory through a bounded pool of
// writers. Every write lands in a temp file first and becomes visible under
// its final name only via rename, so readers never observe a partial file.
//
// Safe for concurrent use.
type DiskStore struct {
	dir    string
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// StagedFile is a fully written temp file awaiting Commit or Discard.
type StagedFile struct {
	Name   string // final name inside the store directory
	Size   int64
	SHA256 string // hex digest of the contents

	tempPath  string
	committed bool
}

// NewDiskStore creates the directory if needed and returns a store that
// allows at most workers concurrent writes.
func NewDiskStore(dir string, workers int, logger *slog.Logger) (*DiskStore, error) {
	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &DiskStore{
		dir:    filepath.Clean(dir),
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Stage copies r into a new temp file in the store directory. It blocks
// while all writer slots are busy and gives up when ctx is done.
func (s *DiskStore) Stage(ctx context.Context, name string, r io.Reader) (*StagedFile, error) {
	if _, err := s.target(name); err != nil {
		return nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for writer: %w", err)
	}
	defer s.sem.Release(1)

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	fail := func(err error) (*StagedFile, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), &contextReader{ctx: ctx, r: r})
	if err != nil {
		return fail(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fail(fmt.Errorf("chmod temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	s.logger.Debug("file staged", "name", name, "size", n, "temp", filepath.Base(tmp.Name()))

	return &StagedFile{
		Name:     name,
		Size:     n,
		SHA256:   hex.EncodeToString(hash.Sum(nil)),
		tempPath: tmp.Name(),
	}, nil
}

// Commit atomically renames the staged file over its final name,
// replacing any existing file.
func (s *DiskStore) Commit(f *StagedFile) error {
	if f.committed {
		return nil
	}
	target, err := s.target(f.Name)
	if err != nil {
		return err
	}
	if err := os.Rename(f.tempPath, target); err != nil {
		return fmt.Errorf("rename %s: %w", f.Name, err)
	}
	f.committed = true
	return nil
}

// Discard removes an uncommitted temp file. Safe to call more than once.
func (s *DiskStore) Discard(f *StagedFile) {
	if f == nil || f.committed {
		return
	}
	if err := os.Remove(f.tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove temp file", "temp", f.tempPath, "error", err)
	}
}

// WriteFile stages data and commits it under name in one step.
func (s *DiskStore) WriteFile(ctx context.Context, name string, data []byte) error {
	staged, err := s.Stage(ctx, name, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := s.Commit(staged); err != nil {
		s.Discard(staged)
		return err
	}
	return nil
}

// ReadFile reads a committed file from the store directory.
func (s *DiskStore) ReadFile(name string) ([]byte, error) {
	target, err := s.target(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

// CheckTarget reports whether Commit may replace name: it must be absent
// or an existing regular file.
func (s *DiskStore) CheckTarget(name string) error {
	target, err := s.target(name)
	if err != nil {
		return err
	}

	info, err := os.Lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", name, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s: %w", name, ErrNotRegularFile)
	}
	return nil
}

// target resolves name inside the store directory. Names that would
// resolve anywhere else are refused.
func (s *DiskStore) target(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
