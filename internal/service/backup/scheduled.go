package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// WriteScheduledBackup writes today's snapshot into the backup directory and
// prunes the oldest files beyond the configured number to keep. Returns the
// path written.
func (s *Service) WriteScheduledBackup(ctx context.Context) (string, error) {
	data, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.opts.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.opts.Dir, FileName(s.now()))
	tmp, err := os.CreateTemp(s.opts.Dir, ".backup-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename backup: %w", err)
	}

	s.log.InfoContext(ctx, "backup written", slog.String("path", path), slog.Int("bytes", len(data)))

	if err := s.prune(); err != nil {
		s.log.WarnContext(ctx, "prune backups", slog.String("error", err.Error()))
	}
	return path, nil
}

func (s *Service) prune() error {
	if s.opts.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "backup_productos_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.opts.Keep {
		return nil
	}
	// Names embed the date, so lexical order is chronological.
	slices.Sort(names)
	for _, name := range names[:len(names)-s.opts.Keep] {
		if err := os.Remove(filepath.Join(s.opts.Dir, name)); err != nil {
			return err
		}
	}
	return nil
}
