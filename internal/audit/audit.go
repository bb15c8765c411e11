// Package audit appends one JSON line per safety decision to a local trail.
// The trail is strictly off the analysis hot path: callers log after the
// decision is already made, and logging failures never change a decision.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riskfield/cmdsafe/internal/redact"
)

// Event is one audit record. Free-text fields are scrubbed for
// credential-shaped content before they hit disk.
type Event struct {
	ID               string   `json:"id"`
	Timestamp        string   `json:"timestamp"`
	Kind             string   `json:"kind"` // "command", "conclusion", "family"
	Command          string   `json:"command,omitempty"`
	Persona          string   `json:"persona,omitempty"`
	Risk             string   `json:"risk"`
	Decision         string   `json:"decision"`
	Reasoning        string   `json:"reasoning,omitempty"`
	BlockedReasons   []string `json:"blocked_reasons,omitempty"`
	ConsensusWarning string   `json:"consensus_warning,omitempty"`
	UserAction       string   `json:"user_action,omitempty"`
	LatencyMicros    int64    `json:"latency_micros,omitempty"`
}

// defaultMaxLogBytes caps the trail size; one rotated backup is kept.
const defaultMaxLogBytes = 5 << 20

// Logger serializes events to an append-only JSONL file with single-backup
// rotation.
type Logger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open creates or appends to the trail at path.
func Open(path string) (*Logger, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &Logger{path: path, file: file}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// Log stamps, scrubs, and appends one event, rotating first when the trail
// is at the size cap.
func (l *Logger) Log(event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	event.Command = redact.Scrub(event.Command)
	event.Reasoning = redact.Scrub(event.Reasoning)
	event.BlockedReasons = redact.ScrubAll(event.BlockedReasons)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateIfFull(); err != nil {
		return err
	}
	_, err = l.file.Write(data)
	return err
}

// rotateIfFull moves a full trail aside to <path>.1, replacing any previous
// backup, and reopens a fresh file. Caller holds the lock.
func (l *Logger) rotateIfFull() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < defaultMaxLogBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		return err
	}
	file, err := openAppend(l.path)
	if err != nil {
		return err
	}
	l.file = file
	return nil
}

// Close flushes and closes the trail.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
