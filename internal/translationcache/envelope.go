package translationcache

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Envelope is the result of the structural check on a cached payload:
// either Valid or Malformed.
type Envelope interface {
	envelope()
}

// Valid is a payload that is a well-formed response envelope with at least one
// non-empty output text fragment.
type Valid struct {
	Raw string
	// Text is the concatenation of the output text fragments.
	Text string
}

// Malformed is a payload that failed the structural check.
type Malformed struct {
	Reason string
}

func (Valid) envelope()     {}
func (Malformed) envelope() {}

// ParseEnvelope performs the permissive structural check on a Responses API
// envelope. The content of the text is not inspected.
func ParseEnvelope(payload string) Envelope {
	if strings.TrimSpace(payload) == "" {
		return Malformed{Reason: "empty payload"}
	}
	if !gjson.Valid(payload) {
		return Malformed{Reason: "invalid json"}
	}
	output := gjson.Get(payload, "output")
	if !output.IsArray() {
		return Malformed{Reason: "missing output array"}
	}

	texts := OutputTexts(payload)
	if len(texts) == 0 {
		return Malformed{Reason: "no output text"}
	}
	return Valid{Raw: payload, Text: strings.Join(texts, "")}
}

// OutputTexts collects the non-empty output_text fragments of message items.
func OutputTexts(payload string) []string {
	var texts []string
	gjson.Get(payload, "output").ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() != "message" {
			return true
		}
		item.Get("content").ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "output_text" {
				if t := part.Get("text").String(); strings.TrimSpace(t) != "" {
					texts = append(texts, t)
				}
			}
			return true
		})
		return true
	})
	return texts
}
