// Package history keeps an append-only JSONL log of every analysis.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileName is the log file created inside the data directory.
const FileName = "summaries.jsonl"

// Source types.
const (
	SourceText  = "text"
	SourceURL   = "url"
	SourcePDF   = "pdf"
	SourceInbox = "inbox"
)

// Record is one line of the log.
type Record struct {
	ID         string   `json:"id"`
	SourceType string   `json:"source_type"`
	SourceName string   `json:"source_name"`
	Language   string   `json:"language"`
	CreatedAt  string   `json:"created_at"`
	Summary    string   `json:"summary"`
	Topics     []string `json:"topics,omitempty"`
	Ministores []string `json:"ministores,omitempty"`
}

// Log appends records to a JSONL file.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open prepares a log in dir, creating the directory if needed.
func Open(dir string) (*Log, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Log{path: filepath.Join(dir, FileName), now: time.Now}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Save stamps rec with a creation time and id, appends it and returns it.
func (l *Log) Save(rec Record) (Record, error) {
	rec.CreatedAt = l.now().UTC().Format(time.RFC3339Nano)
	rec.ID = rec.SourceType + "-" + rec.CreatedAt
	if rec.Language == "" {
		rec.Language = "es"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return Record{}, fmt.Errorf("failed to encode record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Record{}, fmt.Errorf("failed to open history: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return Record{}, fmt.Errorf("failed to write history: %w", err)
	}
	if err := f.Close(); err != nil {
		return Record{}, fmt.Errorf("failed to close history: %w", err)
	}
	return rec, nil
}

// All returns every record in file order. A missing file yields no records.
func (l *Log) All() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	records := []Record{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("history line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (l *Log) Recent(limit int) ([]Record, error) {
	all, err := l.All()
	if err != nil {
		return nil, err
	}
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
