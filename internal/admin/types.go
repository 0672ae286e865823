package admin

import "sefariaproxy/internal/pronunciation"

// TranslationStatsResponse is the JSON response for GET /admin/api/v1/translation-cache/stats.
type TranslationStatsResponse struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	MalformedHits int64 `json:"malformed_hits"`
	// HitRate is a percentage with two decimals.
	HitRate   float64 `json:"hit_rate"`
	UpdatedAt int64   `json:"updated_at"`
}

// TranslationEntry is one row of the translation entries listing.
type TranslationEntry struct {
	PhraseHash         string `json:"phrase_hash"`
	Phrase             string `json:"phrase"`
	TranslationSnippet string `json:"translationSnippet"`
	CreatedAt          int64  `json:"created_at"`
	Version            int    `json:"version"`
	PromptHash         string `json:"prompt_hash,omitempty"`
}

// TranslationEntriesResponse is the JSON response for GET /admin/api/v1/translation-cache/entries.
type TranslationEntriesResponse struct {
	Entries []TranslationEntry `json:"entries"`
	Total   int64              `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

// PronunciationStatsResponse is the JSON response for GET /admin/api/v1/pronunciation-cache/stats.
type PronunciationStatsResponse struct {
	TotalSizeBytes int64 `json:"total_size_bytes"`
	TotalFiles     int64 `json:"total_files"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
	// HitRate and UsagePercent are percentages with two decimals.
	HitRate      float64 `json:"hit_rate"`
	MaxSizeBytes int64   `json:"max_size_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	// LastPurgeAt is null until the first purge.
	LastPurgeAt *int64 `json:"last_purge_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// PronunciationEntriesResponse is the JSON response for GET /admin/api/v1/pronunciation-cache/entries.
type PronunciationEntriesResponse struct {
	Entries []pronunciation.Entry `json:"entries"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// ClearResponse reports a clear pass. For the translation cache DeletedCount
// is rows removed; for the pronunciation cache it is blobs removed, with
// failed blob deletions in Errors.
type ClearResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deletedCount"`
	Errors       int    `json:"errors,omitempty"`
	Message      string `json:"message"`
}

// PurgeResponse reports a purge pass.
type PurgeResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount"`
	FreedBytes   int64  `json:"freedBytes"`
	Message      string `json:"message"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OverviewResponse is the JSON response for GET /admin/api/v1/overview.
type OverviewResponse struct {
	Translation   TranslationStatsResponse   `json:"translation"`
	Pronunciation PronunciationStatsResponse `json:"pronunciation"`
	DefaultModel  string                     `json:"default_model,omitempty"`
	Version       string                     `json:"version"`
	GoVersion     string                     `json:"go_version"`
}

// DefaultModelRequest is the body of the model override PUT endpoints.
type DefaultModelRequest struct {
	Model string `json:"model"`
}

// DefaultModelResponse is the JSON response for the default-model endpoints.
type DefaultModelResponse struct {
	Success    bool   `json:"success,omitempty"`
	Model      string `json:"model"`
	Configured string `json:"configured,omitempty"`
}

// ModelsResponse is the JSON response for GET /admin/api/v1/models.
type ModelsResponse struct {
	Models []string `json:"models"`
	Total  int      `json:"total"`
}
