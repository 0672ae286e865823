// Package settings persists runtime-adjustable system settings such as the
// default translation and speech models.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Setting keys for model overrides.
const (
	KeyTranslationDefaultModel = "translation_default_model"
	KeySpeechDefaultModel      = "tts_default_model"
)

// ErrNotFound is returned by Store.Get when the key is unset.
var ErrNotFound = errors.New("setting not found")

// Setting is one row of system_settings.
type Setting struct {
	Key       string `json:"key" bson:"_id"`
	Value     string `json:"value" bson:"value"`
	UpdatedAt int64  `json:"updated_at" bson:"updated_at"`
}

// Store reads and writes settings rows.
type Store interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key, value string, now int64) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Models resolves a primary model: the override stored under its key when
// present, otherwise the configured default.
type Models struct {
	store    Store
	key      string
	fallback string
	now      func() time.Time
}

// NewModels creates the translation model resolver. store may be nil.
func NewModels(store Store, configuredDefault string) *Models {
	return newModels(store, KeyTranslationDefaultModel, configuredDefault)
}

// NewSpeechModels creates the speech synthesis model resolver. store may be
// nil.
func NewSpeechModels(store Store, configuredDefault string) *Models {
	return newModels(store, KeySpeechDefaultModel, configuredDefault)
}

func newModels(store Store, key, configuredDefault string) *Models {
	return &Models{store: store, key: key, fallback: configuredDefault, now: time.Now}
}

// Configured returns the default used when no override is stored.
func (m *Models) Configured() string { return m.fallback }

// DefaultModel returns the effective primary model. Read failures fall back
// to the configured default.
func (m *Models) DefaultModel(ctx context.Context) string {
	if m.store == nil {
		return m.fallback
	}
	s, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("failed to read model setting", "key", m.key, "error", err)
		}
		return m.fallback
	}
	if v := strings.TrimSpace(s.Value); v != "" {
		return v
	}
	return m.fallback
}

// SetDefaultModel stores an override. An empty model removes it.
func (m *Models) SetDefaultModel(ctx context.Context, model string) error {
	if m.store == nil {
		return fmt.Errorf("settings store is not configured")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return m.store.Delete(ctx, m.key)
	}
	return m.store.Set(ctx, m.key, model, m.now().Unix())
}
