package config

import (
	"log"
	"sync"
)

// SettingsSource provides the current waitlist settings. The background jobs
// call it once per run so operational knobs can change without a restart.
type SettingsSource interface {
	Waitlist() WaitlistSettings
}

// StaticSettings is a fixed SettingsSource, used by tests and by callers that
// do not need live reloading.
type StaticSettings WaitlistSettings

// Waitlist returns the fixed settings value.
func (s StaticSettings) Waitlist() WaitlistSettings { return WaitlistSettings(s) }

// FileSettings rereads the configuration file on every call, falling back to
// the last good values when the reload fails.
type FileSettings struct {
	path string

	mu   sync.Mutex
	last WaitlistSettings
}

// NewFileSettings creates a file-backed SettingsSource seeded with the
// initially loaded settings.
func NewFileSettings(path string, initial WaitlistSettings) *FileSettings {
	return &FileSettings{path: path, last: initial}
}

// Waitlist reloads the settings from disk.
func (f *FileSettings) Waitlist() WaitlistSettings {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg, err := Load(f.path)
	if err != nil {
		log.Printf("settings reload from %s failed, keeping previous values: %v", f.path, err)
		return f.last
	}
	f.last = cfg.Waitlist
	return f.last
}
