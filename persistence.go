// Package main - persistence.go
//
// Data persistence: configuration in data.json, session history and the
// per-catch log under logs/. Load functions fall back to sane defaults so
// a fresh checkout runs without any files present.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

const (
	dataFile     = "data.json"
	logsDir      = "logs"
	sessionsFile = "sessions.json"
	catchLogFile = "fishing_log.json"
)

// PersistentData is everything saved between runs.
type PersistentData struct {
	Config *Config `json:"config"`
}

// LoadData reads the persisted configuration, returning defaults when the
// file is missing or unreadable. Sparse files are filled in with default
// values for any omitted field.
func LoadData(path string) *PersistentData {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("could not read data file, using defaults")
		}
		return &PersistentData{Config: DefaultConfig()}
	}

	var data PersistentData
	if err := sonic.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("malformed data file, using defaults")
		return &PersistentData{Config: DefaultConfig()}
	}
	if data.Config == nil {
		data.Config = DefaultConfig()
	}
	data.Config.normalize()
	return &data
}

// SaveData writes the persisted configuration.
func SaveData(path string, data *PersistentData) error {
	raw, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// Session is one start/stop pair in the session history. Stop is nil
// while the session is running or when the process died mid-session.
type Session struct {
	Start string  `json:"start"`
	Stop  *string `json:"stop,omitempty"`
}

// LoadSessions reads the session history, empty when absent.
func LoadSessions(path string) ([]Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	var sessions []Session
	if err := sonic.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("parse sessions: %w", err)
	}
	return sessions, nil
}

// SaveSessions writes the session history, creating the logs directory as
// needed.
func SaveSessions(path string, sessions []Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	raw, err := sonic.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}

// StartSession appends a new open session entry stamped now.
func StartSession(path string, now time.Time) error {
	sessions, err := LoadSessions(path)
	if err != nil {
		return err
	}
	sessions = append(sessions, Session{Start: now.Format(time.RFC3339)})
	return SaveSessions(path, sessions)
}

// EndSession closes the most recent open session entry. A missing open
// entry is not an error; the history just stays as it is.
func EndSession(path string, now time.Time) error {
	sessions, err := LoadSessions(path)
	if err != nil {
		return err
	}
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Stop == nil {
			stop := now.Format(time.RFC3339)
			sessions[i].Stop = &stop
			return SaveSessions(path, sessions)
		}
	}
	return nil
}

// CatchLogEntry is one resolved catch attempt in the fishing log.
type CatchLogEntry struct {
	Timestamp string `json:"timestamp"`
	Catch     bool   `json:"catch"`
	FishType  string `json:"fish_type,omitempty"`
}

// AppendCatchLog appends one entry to the fishing log.
func AppendCatchLog(path string, entry CatchLogEntry) error {
	var entries []CatchLogEntry
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := sonic.Unmarshal(raw, &entries); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("malformed catch log, starting fresh")
			entries = nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read catch log: %w", err)
	}

	entries = append(entries, entry)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	out, err := sonic.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catch log: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
