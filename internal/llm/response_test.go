package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PureJSON(t *testing.T) {
	raw := `{"score": 80}`
	assert.Equal(t, raw, ExtractJSON(raw))
}

func TestExtractJSON_CodeFence(t *testing.T) {
	raw := "Here is the review:\n```json\n{\"score\": 80}\n```\nDone."
	assert.Equal(t, `{"score": 80}`, ExtractJSON(raw))
}

func TestExtractJSON_EmbeddedInProse(t *testing.T) {
	raw := `The analysis follows. {"issues": [{"severity": "major"}]} Let me know.`
	assert.Equal(t, `{"issues": [{"severity": "major"}]}`, ExtractJSON(raw))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	assert.Equal(t, "", ExtractJSON("no structured content here"))
}

func TestParseStructured_Valid(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	require.NoError(t, ParseStructured(`{"score": 65}`, &out))
	assert.Equal(t, 65, out.Score)
}

func TestParseStructured_RepairsTrailingComma(t *testing.T) {
	var out struct {
		Issues []string `json:"issues"`
	}
	raw := "```json\n{\"issues\": [\"missing ventilation\",]}\n```"
	require.NoError(t, ParseStructured(raw, &out))
	assert.Equal(t, []string{"missing ventilation"}, out.Issues)
}

func TestParseStructured_Irreparable(t *testing.T) {
	var out map[string]interface{}
	err := ParseStructured("the builder should fix the wiring", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}
