package translationcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		valid   bool
		text    string
		reason  string
	}{
		{"empty", "", false, "", "empty payload"},
		{"not json", "{oops", false, "", "invalid json"},
		{"no output", `{"id":"x"}`, false, "", "missing output array"},
		{"output not array", `{"output":"text"}`, false, "", "missing output array"},
		{"no message items", `{"output":[{"type":"reasoning"}]}`, false, "", "no output text"},
		{"blank text", `{"output":[{"type":"message","content":[{"type":"output_text","text":""}]}]}`, false, "", "no output text"},
		{
			name:    "single fragment",
			payload: `{"output":[{"type":"message","content":[{"type":"output_text","text":"hello"}]}]}`,
			valid:   true,
			text:    "hello",
		},
		{
			name:    "joins fragments and skips refusal parts",
			payload: `{"output":[{"type":"message","content":[{"type":"refusal","refusal":"no"},{"type":"output_text","text":"a"}]},{"type":"message","content":[{"type":"output_text","text":"b"}]}]}`,
			valid:   true,
			text:    "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch env := ParseEnvelope(tt.payload).(type) {
			case Valid:
				assert.True(t, tt.valid, "expected malformed")
				assert.Equal(t, tt.text, env.Text)
			case Malformed:
				assert.False(t, tt.valid, "expected valid, got %s", env.Reason)
				assert.Equal(t, tt.reason, env.Reason)
			}
		})
	}
}
