package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultFileTimeout bounds every filesystem operation of the store.
const DefaultFileTimeout = 5 * time.Second

// withTimeout runs fn and gives up after timeout with ErrTimeout. The
// operation itself cannot be interrupted; its late result is discarded.
func withTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func() (T, error)) (T, error) {
	if timeout <= 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{val: v, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s: %w after %s", op, ErrTimeout, timeout)
		}
		return zero, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (s *Store) readFile(ctx context.Context, path string) ([]byte, error) {
	return withTimeout(ctx, s.fileTimeout, "read", func() ([]byte, error) {
		return afero.ReadFile(s.fs, path)
	})
}

func (s *Store) writeFile(ctx context.Context, path, content string) error {
	_, err := withTimeout(ctx, s.fileTimeout, "write", func() (struct{}, error) {
		if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return struct{}{}, fmt.Errorf("creating sessions directory: %w", err)
		}
		return struct{}{}, afero.WriteFile(s.fs, path, []byte(content), 0o644)
	})
	return err
}

func (s *Store) exists(ctx context.Context, path string) (bool, error) {
	return withTimeout(ctx, s.fileTimeout, "stat", func() (bool, error) {
		return afero.Exists(s.fs, path)
	})
}

// listIDs returns the ids of all session files, newest filename first.
// Filenames start with the creation date, so this approximates recency.
func (s *Store) listIDs(ctx context.Context) ([]string, error) {
	dir := SessionsPath(s.cfg.ProjectRoot())
	return withTimeout(ctx, s.fileTimeout, "list", func() ([]string, error) {
		entries, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("reading sessions directory: %w", err)
		}

		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
				continue
			}
			ids = append(ids, strings.TrimSuffix(e.Name(), fileExt))
		}
		slices.Sort(ids)
		slices.Reverse(ids)
		return ids, nil
	})
}
