package orchestrator

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sefariaproxy/internal/core"
	"sefariaproxy/internal/openai"
)

func TestSentenceGrammar(t *testing.T) {
	up := &fakeUpstream{respond: func(string) (*openai.ResponsesResult, error) {
		return envelope("The phrase has a **construct chain**."), nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue())

	text, err := tutor.SentenceGrammar(context.Background(), " בְּרֵאשִׁית ", "In the beginning")
	require.NoError(t, err)
	assert.Equal(t, "The phrase has a **construct chain**.", text)
	assert.Equal(t, []string{"Hebrew/Aramaic phrase: בְּרֵאשִׁית\n\nEnglish translation: In the beginning"}, up.inputs)

	req := up.lastRequest
	assert.Equal(t, primaryModel, req.Model)
	assert.Equal(t, 1024, req.MaxOutputTokens)
	require.NotNil(t, req.Reasoning)
	assert.Equal(t, "medium", req.Reasoning.Effort)
	require.NotNil(t, req.Text)
	assert.Equal(t, "medium", req.Text.Verbosity)
}

func TestSentenceGrammar_EmptyResponse(t *testing.T) {
	up := &fakeUpstream{respond: func(string) (*openai.ResponsesResult, error) {
		return &openai.ResponsesResult{Raw: []byte(`{"output":[]}`)}, nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue())

	_, err := tutor.SentenceGrammar(context.Background(), "שָׁלוֹם", "")
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadGateway, gwErr.HTTPStatusCode())
	assert.Equal(t, "Grammar explanation failed: empty or unexpected response from OpenAI", gwErr.Message)
	assert.Equal(t, []string{"שָׁלוֹם"}, up.inputs)
}

func TestSentenceGrammar_Fallback(t *testing.T) {
	up := &fakeUpstream{respond: func(model string) (*openai.ResponsesResult, error) {
		if model == primaryModel {
			return nil, unavailable(model)
		}
		return envelope("explained"), nil
	}}
	tutor := NewTutor(up, staticModel(primaryModel), newCatalogue("gpt-4.1-chat-latest"))

	text, err := tutor.SentenceGrammar(context.Background(), "שָׁלוֹם", "")
	require.NoError(t, err)
	assert.Equal(t, "explained", text)
	assert.Equal(t, []string{primaryModel, "gpt-4.1-chat-latest"}, up.Calls())
}

func TestModernHebrewExamples(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    *Examples
		wantErr string
	}{
		{
			name:   "examples truncated to three",
			output: "```json\n{\"examples\":[{\"sentence\":\"א\",\"translation\":\"a\"},{\"sentence\":\"ב\",\"translation\":\"b\"},{\"sentence\":\"ג\",\"translation\":\"c\"},{\"sentence\":\"ד\",\"translation\":\"d\"}]}\n```",
			want: &Examples{Examples: []Example{
				{Sentence: "א", Translation: "a"},
				{Sentence: "ב", Translation: "b"},
				{Sentence: "ג", Translation: "c"},
			}},
		},
		{
			name:   "explanation",
			output: `{"explanation":"  This word is a proper name. "}`,
			want:   &Examples{Explanation: "This word is a proper name."},
		},
		{
			name:    "invalid json",
			output:  "no examples today",
			wantErr: "Modern Hebrew examples failed: invalid JSON from OpenAI",
		},
		{
			name:    "neither shape",
			output:  `{"examples":[]}`,
			wantErr: "Modern Hebrew examples failed: response missing examples or explanation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{respond: func(string) (*openai.ResponsesResult, error) {
				return envelope(tt.output), nil
			}}
			tutor := NewTutor(up, staticModel(primaryModel), newCatalogue())

			got, err := tutor.ModernHebrewExamples(context.Background(), "אָכַל", "ate")
			if tt.wantErr != "" {
				var gwErr *core.GatewayError
				require.ErrorAs(t, err, &gwErr)
				assert.Equal(t, tt.wantErr, gwErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"Hebrew word: אָכַל\nEnglish translation: ate"}, up.inputs)
		})
	}
}

func TestModernHebrewExamples_MissingWord(t *testing.T) {
	tutor := NewTutor(&fakeUpstream{}, staticModel(primaryModel), newCatalogue())
	_, err := tutor.ModernHebrewExamples(context.Background(), "", "")
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Missing word in body", gwErr.Message)
}

func TestCurrentModelAndRanking(t *testing.T) {
	tutor := NewTutor(&fakeUpstream{}, staticModel(primaryModel), newCatalogue("gpt-4o", "gpt-4o-mini", "gpt-5.2", "gpt-5.2-chat-latest"))

	model, err := tutor.CurrentModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gpt-5.2-chat-latest", model)

	ranked, err := tutor.RankedModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-5.2-chat-latest", "gpt-5.2", "gpt-4o-mini", "gpt-4o"}, ranked)
}
