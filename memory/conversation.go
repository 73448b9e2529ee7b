package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Message is a minimal persisted view of a thread message.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

// Session is what a run of the CLI leaves behind.
type Session struct {
	SessionID   string    `json:"session_id,omitempty"`
	AssistantID string    `json:"assistant_id"`
	ThreadID    string    `json:"thread_id"`
	RunID       string    `json:"run_id"`
	RunStatus   string    `json:"run_status"`
	SavedAt     time.Time `json:"saved_at"`
	Messages    []Message `json:"messages"`
}

// LoadSession reads a saved session. A missing file yields nil, nil.
func LoadSession(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession writes s to path, creating parent directories as needed.
func SaveSession(path string, s *Session) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
