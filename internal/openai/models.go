package openai

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTranslationModel is the primary translation model when no
	// override is stored.
	DefaultTranslationModel = "gpt-5.1-chat-latest"
	// LastResortModel is used when the catalogue offers nothing better.
	LastResortModel = "gpt-4o"
	// LastResortSpeechModel is the speech fallback of last resort.
	LastResortSpeechModel = "tts-1"

	// CatalogueTTL bounds how long a fetched model list is reused.
	CatalogueTTL = 10 * time.Minute
)

var (
	chatLatestPattern = regexp.MustCompile(`(?i)^gpt-(\d+)\.(\d+)-chat-latest$`)

	fallbackPrefixes = []string{"gpt-3.5", "gpt-4", "gpt-5"}
	listingPrefixes  = []string{"gpt-3.5", "gpt-4", "gpt-5", "o1", "o3"}

	variantSuffixes = []string{"instant", "codex", "pro", "mini", "nano", "turbo", "vision", "chat-latest", "thinking"}
)

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

func isGeneralPurpose(id string, prefixes []string) bool {
	return hasAnyPrefix(id, prefixes) &&
		!strings.Contains(id, "embedding") &&
		!strings.HasPrefix(id, "tts-") &&
		!strings.HasPrefix(id, "whisper")
}

// IsGeneralPurpose reports whether id is a general-purpose chat model
// eligible as a translation fallback.
func IsGeneralPurpose(id string) bool {
	return isGeneralPurpose(id, fallbackPrefixes)
}

// ChatLatestVersion ranks gpt-X.Y-chat-latest ids as X*100+Y; other ids rank 0.
func ChatLatestVersion(id string) int {
	m := chatLatestPattern.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return major*100 + minor
}

func newestFirst(models []Model) []Model {
	out := append([]Model(nil), models...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out
}

// SelectFallback picks the substitute for a failed translation model: the
// newest gpt-X.Y-chat-latest other than exclude, else the newest
// general-purpose model other than exclude, else LastResortModel.
func SelectFallback(models []Model, exclude string) string {
	best, bestVersion := "", 0
	for _, m := range models {
		if m.ID == exclude || !IsGeneralPurpose(m.ID) {
			continue
		}
		if v := ChatLatestVersion(m.ID); v > bestVersion {
			best, bestVersion = m.ID, v
		}
	}
	if best != "" {
		return best
	}
	for _, m := range newestFirst(models) {
		if m.ID != exclude && IsGeneralPurpose(m.ID) {
			return m.ID
		}
	}
	return LastResortModel
}

// SelectSpeechFallback picks the newest speech model other than exclude,
// else LastResortSpeechModel.
func SelectSpeechFallback(models []Model, exclude string) string {
	for _, m := range newestFirst(models) {
		if m.ID != exclude && strings.Contains(m.ID, "tts") {
			return m.ID
		}
	}
	return LastResortSpeechModel
}

// LatestGeneralPurpose returns the newest general-purpose model id
// (reasoning families included), or LastResortModel.
func LatestGeneralPurpose(models []Model) string {
	for _, m := range newestFirst(models) {
		if isGeneralPurpose(m.ID, listingPrefixes) {
			return m.ID
		}
	}
	return LastResortModel
}

func baseModelID(id string) string {
	lower := strings.ToLower(id)
	for _, suffix := range variantSuffixes {
		if i := strings.Index(lower, "-"+suffix); i > 0 {
			rest := lower[i+len(suffix)+1:]
			if rest == "" || strings.HasPrefix(rest, "-") {
				return id[:i]
			}
		}
	}
	return id
}

func preferenceScore(id, base string) int {
	switch {
	case strings.Contains(id, "-chat-latest"):
		return 5
	case strings.Contains(id, "-instant"):
		return 4
	case strings.Contains(id, "-mini"):
		return 3
	case strings.Contains(id, "-turbo"):
		return 2
	case id == base:
		return 1
	case strings.Contains(id, "-codex"):
		return -1
	}
	return 0
}

// RankModels groups general-purpose models by family, newest family first,
// and orders each family chat-latest > instant > mini > turbo > base.
// Variants scoring below base (codex, pro, nano...) are omitted.
func RankModels(models []Model) []string {
	families := make(map[string][]Model)
	newest := make(map[string]int64)
	var bases []string
	for _, m := range models {
		if !isGeneralPurpose(m.ID, listingPrefixes) {
			continue
		}
		base := baseModelID(m.ID)
		if _, ok := families[base]; !ok {
			bases = append(bases, base)
		}
		families[base] = append(families[base], m)
		if m.Created > newest[base] {
			newest[base] = m.Created
		}
	}
	sort.SliceStable(bases, func(i, j int) bool { return newest[bases[i]] > newest[bases[j]] })

	ids := make([]string, 0, len(models))
	for _, base := range bases {
		family := families[base]
		sort.SliceStable(family, func(i, j int) bool {
			si, sj := preferenceScore(family[i].ID, base), preferenceScore(family[j].ID, base)
			if si != sj {
				return si > sj
			}
			return family[i].Created > family[j].Created
		})
		for _, m := range family {
			if preferenceScore(m.ID, base) >= 1 {
				ids = append(ids, m.ID)
			}
		}
	}
	return ids
}

// ModelLister lists upstream models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]Model, error)
}

const catalogueKey = "models"

// Catalogue caches the upstream model list for CatalogueTTL.
type Catalogue struct {
	lister ModelLister
	cache  *expirable.LRU[string, []Model]
}

// NewCatalogue creates a catalogue over lister.
func NewCatalogue(lister ModelLister, ttl time.Duration) *Catalogue {
	if ttl <= 0 {
		ttl = CatalogueTTL
	}
	return &Catalogue{
		lister: lister,
		cache:  expirable.NewLRU[string, []Model](1, nil, ttl),
	}
}

// Models returns the cached list, fetching it when absent or expired.
func (c *Catalogue) Models(ctx context.Context) ([]Model, error) {
	if models, ok := c.cache.Get(catalogueKey); ok {
		return models, nil
	}
	models, err := c.lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(catalogueKey, models)
	return models, nil
}

// Invalidate drops the cached list.
func (c *Catalogue) Invalidate() {
	c.cache.Purge()
}

// TranslationFallback returns the substitute for failed. A catalogue failure
// degrades to LastResortModel.
func (c *Catalogue) TranslationFallback(ctx context.Context, failed string) string {
	models, err := c.Models(ctx)
	if err != nil {
		return LastResortModel
	}
	return SelectFallback(models, failed)
}

// SpeechFallback returns the substitute speech model for failed.
func (c *Catalogue) SpeechFallback(ctx context.Context, failed string) string {
	models, err := c.Models(ctx)
	if err != nil {
		return LastResortSpeechModel
	}
	return SelectSpeechFallback(models, failed)
}
