package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sefariaproxy/config"
	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/pronunciation"
	"sefariaproxy/internal/rootmeaning"
	"sefariaproxy/internal/settings"
	"sefariaproxy/internal/storage"
	"sefariaproxy/internal/translationcache"
)

// Caches bundles the shared database, the blob store and the cache services
// built on them. The CLI maintenance commands use it without the HTTP server.
type Caches struct {
	Translations   *translationcache.Cache
	Pronunciations *pronunciation.Cache
	Models         *settings.Models
	SpeechModels   *settings.Models
	RootMeanings   *rootmeaning.Cache

	storage          storage.Storage
	blobs            blobstore.Store
	translationStore translationcache.Store
	pronounceStore   pronunciation.Store
	settingsStore    settings.Store
	rootStore        rootmeaning.Store
}

// OpenCaches connects the configured backends and builds the caches.
// The caller must call Close.
func OpenCaches(ctx context.Context, cfg *config.Config) (*Caches, error) {
	st, err := storage.New(ctx, cfg.StorageSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Caches{storage: st}

	if c.translationStore, err = translationcache.NewStore(st); err != nil {
		return nil, c.closeOnError(fmt.Errorf("failed to initialize translation cache: %w", err))
	}
	if c.pronounceStore, err = pronunciation.NewStore(st); err != nil {
		return nil, c.closeOnError(fmt.Errorf("failed to initialize pronunciation cache: %w", err))
	}
	if c.settingsStore, err = settings.NewStore(st); err != nil {
		return nil, c.closeOnError(fmt.Errorf("failed to initialize settings store: %w", err))
	}
	if c.rootStore, err = rootmeaning.NewStore(st); err != nil {
		return nil, c.closeOnError(fmt.Errorf("failed to initialize root meaning cache: %w", err))
	}
	if c.blobs, err = blobstore.New(cfg.BlobSettings()); err != nil {
		return nil, c.closeOnError(fmt.Errorf("failed to initialize blob store: %w", err))
	}

	c.Translations = translationcache.New(c.translationStore,
		translationcache.WithSchemaVersion(cfg.TranslationCache.SchemaVersion),
		translationcache.WithTTL(time.Duration(cfg.TranslationCache.TTLSeconds)*time.Second),
	)
	c.Pronunciations = pronunciation.New(c.pronounceStore, c.blobs,
		pronunciation.WithMaxSizeBytes(cfg.PronunciationCache.MaxSizeBytes),
	)
	c.Models = settings.NewModels(c.settingsStore, cfg.OpenAI.TranslationModel)
	c.SpeechModels = settings.NewSpeechModels(c.settingsStore, cfg.OpenAI.TTSModel)
	c.RootMeanings = rootmeaning.New(c.rootStore)
	return c, nil
}

func (c *Caches) closeOnError(err error) error {
	if closeErr := c.Close(); closeErr != nil {
		return fmt.Errorf("%w (also: close error: %v)", err, closeErr)
	}
	return err
}

// Close releases the stores, the blob store and the shared database.
func (c *Caches) Close() error {
	var errs []error
	if c.translationStore != nil {
		errs = append(errs, c.translationStore.Close())
	}
	if c.pronounceStore != nil {
		errs = append(errs, c.pronounceStore.Close())
	}
	if c.settingsStore != nil {
		errs = append(errs, c.settingsStore.Close())
	}
	if c.rootStore != nil {
		errs = append(errs, c.rootStore.Close())
	}
	if c.blobs != nil {
		errs = append(errs, c.blobs.Close())
	}
	if c.storage != nil {
		errs = append(errs, c.storage.Close())
	}
	return errors.Join(errs...)
}
