package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReason InvalidReason
	}{
		{name: "valid", raw: `{"score":3,"feedback":"f"}`},
		{name: "extra fields allowed", raw: `{"score":3,"feedback":"f","x":1}`},
		{name: "not json", raw: `score: 3`, wantReason: ReasonMalformed},
		{name: "missing field", raw: `{"score":3}`, wantReason: ReasonSchema},
		{name: "wrong type", raw: `{"score":"3","feedback":"f"}`, wantReason: ReasonSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(gradeSchema(), json.RawMessage(tt.raw))
			if tt.wantReason == "" {
				require.NoError(t, err)
				return
			}
			var invalid *ErrInvalidResponse
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tt.wantReason, invalid.Reason)
		})
	}
}

func TestValidate_NilSchema(t *testing.T) {
	assert.NoError(t, Validate(nil, json.RawMessage(`not json`)))
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                          `{"a":1}`,
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"```\n{\"a\":1}\n```":              `{"a":1}`,
		"Here you go: {\"a\":{\"b\":2}} !": `{"a":{"b":2}}`,
		"no json here":                     "no json here",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractJSON(in), "input %q", in)
	}
}
