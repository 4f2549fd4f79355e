package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/djherbis/times"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/common"
)

// Scanner lists the PDFs directly inside a directory.
type Scanner struct {
	SkipHidden bool
	logger     *slog.Logger
}

func NewScanner(skipHidden bool, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{SkipHidden: skipHidden, logger: logger}
}

// Scan reads every matching file in dir, without recursing.
// A missing dir yields no candidates. Unreadable files are logged and skipped.
// Candidates keep directory enumeration order.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]Candidate, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, common.NewAppError("INVALID_INPUT", "scan directory is required", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, common.WrapError(err, "resolve scan directory")
	}

	f, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("scan directory does not exist", "dir", abs)
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to open scan directory", "dir", abs, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", common.ErrEnumeration, abs, err)
	}
	// os.File.ReadDir does not sort, unlike os.ReadDir
	entries, err := f.ReadDir(-1)
	_ = f.Close()
	if err != nil {
		s.logger.Error("failed to list scan directory", "dir", abs, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", common.ErrEnumeration, abs, err)
	}

	var out []Candidate
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !constants.IsPDF(e.Name()) {
			continue
		}
		if s.SkipHidden && isHidden(e.Name()) {
			continue
		}
		path := filepath.Join(abs, e.Name())
		if !isRegular(path, e) {
			s.logger.Debug("skipping non-regular file", "path", path, "type", e.Type().String())
			continue
		}
		c, err := s.read(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", filepath.Join(abs, e.Name()), "error", err)
			continue
		}
		out = append(out, c)
	}
	s.logger.Info("directory scanned", "dir", abs, "entries", len(entries), "candidates", len(out))
	return out, nil
}

func (s *Scanner) read(path string) (Candidate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", common.ErrTransientIO, err)
	}
	ts, err := times.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %w", common.ErrTransientIO, err)
	}
	created := ts.ModTime()
	if ts.HasBirthTime() {
		created = ts.BirthTime()
	}
	return Candidate{
		Name:        filepath.Base(path),
		SourcePath:  path,
		Content:     content,
		Size:        int64(len(content)),
		ContentHash: Fingerprint(content),
		CreatedAt:   created.UTC(),
		ModifiedAt:  ts.ModTime().UTC(),
	}, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isRegular follows symlinks; FIFOs, sockets and devices are never read.
func isRegular(path string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
