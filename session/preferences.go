package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"rewards-dashboard/storage"
)

// DefaultLanguage is used until the user picks one.
const DefaultLanguage = "ar"

var (
	ErrInvalidLanguage = errors.New("invalid language code")
	languagePattern    = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

type persistedPreferences struct {
	State struct {
		Language string `json:"language"`
	} `json:"state"`
	Version int `json:"version"`
}

// Preferences holds the persisted UI language.
type Preferences struct {
	mu       sync.RWMutex
	language string
	storage  storage.Storage
}

func NewPreferences(st storage.Storage) *Preferences {
	return &Preferences{language: DefaultLanguage, storage: st}
}

// Load reads the persisted preference; a missing record keeps the default.
func (p *Preferences) Load(ctx context.Context) error {
	raw, ok, err := p.storage.GetItem(ctx, storage.KeyPreferences)
	if err != nil || !ok {
		return err
	}

	var record persistedPreferences
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("decode preferences: %w", err)
	}
	if languagePattern.MatchString(record.State.Language) {
		p.mu.Lock()
		p.language = record.State.Language
		p.mu.Unlock()
	}
	return nil
}

func (p *Preferences) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.language
}

// SetLanguage validates and persists lang.
func (p *Preferences) SetLanguage(ctx context.Context, lang string) error {
	if !languagePattern.MatchString(lang) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}

	var record persistedPreferences
	record.State.Language = lang
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := p.storage.SetItem(ctx, storage.KeyPreferences, string(data)); err != nil {
		return fmt.Errorf("persist preferences: %w", err)
	}

	p.mu.Lock()
	p.language = lang
	p.mu.Unlock()
	return nil
}
