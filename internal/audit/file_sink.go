package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cipherchat/internal/domain"
)

// FileSink appends events as JSON lines. The file is created owner-only.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFileSink opens path for appending, creating parent directories.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create events dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	return &FileSink{f: f}, nil
}

// Emit writes ev as a single line. One write per record keeps concurrent
// appenders from interleaving partial events.
func (s *FileSink) Emit(_ context.Context, ev domain.SecurityEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	_, err = s.f.Write(b)
	return err
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

var _ domain.EventSink = (*FileSink)(nil)
