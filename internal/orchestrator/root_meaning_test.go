package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
	"sefariaproxy/internal/rootmeaning"
)

func newRootMeanings(t *testing.T) *rootmeaning.Cache {
	t.Helper()
	store, err := rootmeaning.NewStore(newSQLite(t))
	require.NoError(t, err)
	return rootmeaning.New(store)
}

func TestRootMeaning_MissThenHit(t *testing.T) {
	ctx := context.Background()
	up := &fakeUpstream{respond: func(string) (*openai.ResponsesResult, error) {
		return envelope(`"holy, sanctify"`), nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue(), WithRootMeanings(newRootMeanings(t)))

	meaning, err := tutor.RootMeaning(ctx, "ק־ד־שׁ")
	require.NoError(t, err)
	assert.Equal(t, "holy, sanctify", meaning)
	assert.Equal(t, []string{"Hebrew root: ק־ד־ש (קדש)"}, up.inputs)
	assert.Equal(t, RootMeaningInstructions, up.lastRequest.Instructions)

	meaning, err = tutor.RootMeaning(ctx, "קָדַשׁ")
	require.NoError(t, err)
	assert.Equal(t, "holy, sanctify", meaning)
	assert.Len(t, up.Calls(), 1, "same normalized root is served from cache")
}

func TestRootMeaning_InvalidRoot(t *testing.T) {
	up := &fakeUpstream{}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue())

	_, err := tutor.RootMeaning(context.Background(), "א")
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.HTTPStatusCode())
	assert.Empty(t, up.Calls())
}

func TestRootMeaning_UpstreamFailureIsEmptyAndUncached(t *testing.T) {
	ctx := context.Background()
	fail := true
	up := &fakeUpstream{respond: func(string) (*openai.ResponsesResult, error) {
		if fail {
			return nil, errors.New("connection reset")
		}
		return envelope("say, speak"), nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue(), WithRootMeanings(newRootMeanings(t)))

	meaning, err := tutor.RootMeaning(ctx, "אמר")
	require.NoError(t, err)
	assert.Empty(t, meaning)

	fail = false
	meaning, err = tutor.RootMeaning(ctx, "אמר")
	require.NoError(t, err)
	assert.Equal(t, "say, speak", meaning)
	assert.Len(t, up.Calls(), 2)
}

func TestRootMeaning_Fallback(t *testing.T) {
	up := &fakeUpstream{respond: func(model string) (*openai.ResponsesResult, error) {
		if model == primaryModel {
			return nil, unavailable(model)
		}
		return envelope("walk, go"), nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue("gpt-5.2-chat-latest"))

	meaning, err := tutor.RootMeaning(context.Background(), "הלך")
	require.NoError(t, err)
	assert.Equal(t, "walk, go", meaning)
	assert.Equal(t, []string{primaryModel, "gpt-5.2-chat-latest"}, up.Calls())
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`"holy"`:       "holy",
		`'say, speak'`: "say, speak",
		` holy `:       "holy",
		`"`:            `"`,
		`don't`:        "don't",
		`"it's good"'`: `it's good"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, unquote(in), "unquote(%q)", in)
	}
}
