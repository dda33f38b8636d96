package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives one record per run.
type Sink interface {
	Append(r Record) error
}

// Log is an append-only newline-delimited JSON sink.
type Log struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewLog writes records to w.
func NewLog(w io.Writer) *Log {
	return &Log{w: w}
}

// OpenLog opens path for appending, creating it and its directory if needed.
func OpenLog(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open results log: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results log: %w", err)
	}
	return &Log{w: f, closer: f}, nil
}

// Append encodes r as a single line.
func (l *Log) Append(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Close closes the underlying file, if Log owns one.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Memory keeps records in memory. Used by experiments and tests.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// Append stores r.
func (m *Memory) Append(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

// Records returns a copy of the stored records.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Tee appends to every sink, returning the joined errors.
type Tee []Sink

// Append implements Sink.
func (t Tee) Append(r Record) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Append(Record) error { return nil }

// Discard drops every record.
var Discard Sink = discard{}

// Entry is one decoded results log line.
type Entry map[string]any

// Action returns the entry's action field.
func (e Entry) Action() Action {
	s, _ := e["action"].(string)
	return Action(s)
}

// Read decodes every line of a results log.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("results log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read results log: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// ReadFile decodes a results log from path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read results log: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Filter returns the entries whose action is a.
func Filter(entries []Entry, a Action) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if e.Action() == a {
			out = append(out, e)
		}
	}
	return out
}
