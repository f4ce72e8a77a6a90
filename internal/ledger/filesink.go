package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileSink mirrors entries to an append-only file, one JSON record per
// line. Lines are only ever appended, never rewritten; recovery reads
// the file line by line and takes the last parseable record as the tail.
type FileSink struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileSink creates a FileSink writing to path. The file and its
// parent directory are created lazily on first append, so constructing
// a sink in an unwritable environment succeeds and only the writes
// degrade.
func NewFileSink(path string, logger *zap.Logger) *FileSink {
	return &FileSink{path: path, logger: logger}
}

// Append implements Sink.
func (s *FileSink) Append(_ context.Context, e *Entry) error {
	record, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(record, '\n')); err != nil {
		return fmt.Errorf("write ledger record: %w", err)
	}
	return nil
}

// LoadLast implements Sink. A missing file means no prior state; corrupt
// records (for example a torn trailing write) are skipped rather than
// propagated, so recovery settles on the last intact entry.
func (s *FileSink) LoadLast(_ context.Context) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	var last *Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			s.logger.Warn("skipping corrupt ledger record", zap.Error(err))
			continue
		}
		if e.Hash == "" {
			continue
		}
		last = &e
	}
	if err := scanner.Err(); err != nil && last == nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return last, nil
}
