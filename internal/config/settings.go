// Package config persists user-tunable daemon settings as JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings are the toggles the user can flip at runtime.
type Settings struct {
	// RealTimeSpeak controls whether replies are spoken aloud.
	RealTimeSpeak bool `json:"real_time_speak"`
	// PushToTalk disables silence auto-stop; recording runs until the
	// user triggers again or the cap is hit.
	PushToTalk bool `json:"push_to_talk"`
}

func defaults() Settings {
	return Settings{RealTimeSpeak: true, PushToTalk: false}
}

// Store is a Settings file with concurrent access. Every mutation is
// written back immediately.
type Store struct {
	mu   sync.RWMutex
	path string
	s    Settings
}

// Load reads settings from path, falling back to defaults when the file is
// missing or unreadable.
func Load(path string) *Store {
	st := &Store{path: path, s: defaults()}
	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, &st.s); err != nil {
		st.s = defaults()
	}
	return st
}

func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

func (st *Store) SetRealTimeSpeak(v bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.RealTimeSpeak = v
	return st.save()
}

func (st *Store) SetPushToTalk(v bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PushToTalk = v
	return st.save()
}

func (st *Store) save() error {
	if st.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(st.s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(st.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
