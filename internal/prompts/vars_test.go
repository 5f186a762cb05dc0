package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute_LeavesUnresolvedVerbatim(t *testing.T) {
	tpl := "Project {{ project_type }} at {{ property.address }}, budget {{budget}}."
	got := Substitute(tpl, func(name string) (string, bool) {
		if name == "project_type" {
			return "loft_conversion", true
		}
		return "", false
	})
	assert.Equal(t, "Project loft_conversion at {{ property.address }}, budget {{budget}}.", got)
}

func TestParsePlaceholders_DistinctInOrder(t *testing.T) {
	tpl := "{{ a }} {{b}} {{ a }} {{ c.d }}"
	assert.Equal(t, []string{"a", "b", "c.d"}, ParsePlaceholders(tpl))
}
