package orchestrator

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/blobstore"
	"sefariaproxy/internal/cachekey"
	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/pronunciation"
)

func TestSpeechInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "שָׁלוֹם", "שָׁלוֹם"},
		{"bare name", "יהוה", "Adonai"},
		{"with niqqud", "יְהוָה", "Adonai"},
		{"with cantillation", "יְהוָ֖ה", "Adonai"},
		{"inside phrase", "בָּרוּךְ יְהוָה לְעוֹלָם", "בָּרוּךְ Adonai לְעוֹלָם"},
		{"written adonai", "אדוני", "Adonai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeechInput(tt.in))
		})
	}
}

func TestPronounce_MissThenHit(t *testing.T) {
	ctx := context.Background()
	cache, blobs := newPronunciationCache(t)
	up := &fakeUpstream{speak: func(string) ([]byte, error) { return []byte("ID3-audio"), nil }}
	p := NewPronouncer(cache, up, newCatalogue(), SpeechConfig{})

	text := "יְהוָה"
	first, err := p.Pronounce(ctx, text)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, []byte("ID3-audio"), first.Audio)
	assert.Equal(t, cachekey.New(text).Hash, first.Hash)
	assert.Equal(t, []string{"Adonai"}, up.inputs)
	assert.Equal(t, []string{openai.DefaultTTSModel}, up.Calls())

	_, err = blobs.Get(ctx, blobstore.PronunciationKey(first.Hash, pronunciation.AudioExt))
	require.NoError(t, err)

	second, err := p.Pronounce(ctx, text)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []byte("ID3-audio"), second.Audio)
	assert.Len(t, up.Calls(), 1)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.TotalFiles)
	assert.Equal(t, int64(len("ID3-audio")), stats.TotalSizeBytes)
}

func TestPronounce_SpeechFallback(t *testing.T) {
	ctx := context.Background()
	cache, _ := newPronunciationCache(t)
	up := &fakeUpstream{speak: func(model string) ([]byte, error) {
		if model == openai.DefaultTTSModel {
			return nil, unavailable(model)
		}
		return []byte("audio"), nil
	}}
	p := NewPronouncer(cache, up, newCatalogue("tts-1", openai.DefaultTTSModel, "tts-1-hd"), SpeechConfig{})

	res, err := p.Pronounce(ctx, "שָׁלוֹם")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), res.Audio)
	assert.Equal(t, []string{openai.DefaultTTSModel, "tts-1-hd"}, up.Calls())

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.TotalFiles)
}

func TestPronounce_AuthErrorNoRetryNoEntry(t *testing.T) {
	ctx := context.Background()
	cache, blobs := newPronunciationCache(t)
	up := &fakeUpstream{speak: func(string) ([]byte, error) {
		return nil, core.NewAuthenticationError(openai.ProviderName, "Incorrect API key provided")
	}}
	p := NewPronouncer(cache, up, newCatalogue("tts-1"), SpeechConfig{})

	_, err := p.Pronounce(ctx, "שָׁלוֹם")
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.HTTPStatusCode())
	assert.Equal(t, "Pronunciation failed: Incorrect API key provided", gwErr.Message)
	assert.Len(t, up.Calls(), 1)
	assert.Zero(t, blobs.Len())

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFiles)
	assert.Zero(t, stats.Misses)
}

func TestPronounce_MissingText(t *testing.T) {
	cache, _ := newPronunciationCache(t)
	up := &fakeUpstream{}
	p := NewPronouncer(cache, up, newCatalogue(), SpeechConfig{})

	_, err := p.Pronounce(context.Background(), " \t")
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Missing text in body", gwErr.Message)
	assert.Empty(t, up.Calls())
}

func TestPronounce_RuntimeModelOverride(t *testing.T) {
	ctx := context.Background()
	cache, _ := newPronunciationCache(t)
	up := &fakeUpstream{speak: func(string) ([]byte, error) { return []byte("audio"), nil }}

	p := NewPronouncer(cache, up, newCatalogue(), SpeechConfig{Models: staticModel("tts-1-hd"), Model: "tts-1"})
	_, err := p.Pronounce(ctx, "אָמֵן")
	require.NoError(t, err)

	p = NewPronouncer(cache, up, newCatalogue(), SpeechConfig{Models: staticModel(""), Model: "tts-1"})
	_, err = p.Pronounce(ctx, "הַלְלוּיָהּ")
	require.NoError(t, err)

	assert.Equal(t, []string{"tts-1-hd", "tts-1"}, up.Calls())
}
