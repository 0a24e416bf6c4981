package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStorage writes records to JSONL files, starting a new file every
// rotation interval.
type FileStorage struct {
	outputDir        string
	rotationInterval time.Duration
	now              func() time.Time

	mu           sync.Mutex
	currentFile  *os.File
	writer       *bufio.Writer
	currentPath  string
	lastRotation time.Time
	recordCount  int64
}

// NewFileStorage creates a new file storage.
func NewFileStorage(outputDir string, rotationInterval time.Duration) (*FileStorage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	s := &FileStorage{
		outputDir:        outputDir,
		rotationInterval: rotationInterval,
		now:              time.Now,
	}

	if err := s.rotate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Write appends a record to the current file and flushes it.
func (s *FileStorage) Write(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentFile == nil {
		return fmt.Errorf("storage closed")
	}

	if s.rotationInterval > 0 && s.now().Sub(s.lastRotation) >= s.rotationInterval {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	data = append(data, '\n')
	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flushing record: %w", err)
	}

	s.recordCount++
	return nil
}

// Close closes the current file.
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCurrent()
}

func (s *FileStorage) closeCurrent() error {
	if s.currentFile == nil {
		return nil
	}
	flushErr := s.writer.Flush()
	closeErr := s.currentFile.Close()
	s.currentFile = nil
	s.writer = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// rotate creates a new output file.
func (s *FileStorage) rotate() error {
	if err := s.closeCurrent(); err != nil {
		return fmt.Errorf("closing previous file: %w", err)
	}

	now := s.now()
	filename := fmt.Sprintf("ticks_%s.jsonl", now.UTC().Format("2006-01-02_15-04-05.000"))
	path := filepath.Join(s.outputDir, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	s.currentFile = f
	s.writer = bufio.NewWriter(f)
	s.currentPath = path
	s.lastRotation = now
	s.recordCount = 0

	return nil
}

// CurrentPath returns the path to the current output file.
func (s *FileStorage) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPath
}

// RecordCount returns the number of records written to the current file.
func (s *FileStorage) RecordCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordCount
}
