package ats

import (
	"encoding/json"
	"os"
	"time"
)

// refreshMargin is the safety window before expiry in which the session is
// treated as stale and re-authenticated.
const refreshMargin = 5 * time.Minute

type session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *session) validAt(now time.Time) bool {
	return s != nil && s.Token != "" && s.ExpiresAt.After(now.Add(refreshMargin))
}

// loadSession restores a persisted session so a cold process start reuses a
// still-valid token. A missing or unreadable file yields no session.
func loadSession(path string) *session {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if s.Token == "" || s.ExpiresAt.IsZero() {
		return nil
	}
	return &s
}

func saveSession(path string, s *session) error {
	if path == "" || s == nil {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
