package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntrise.com/core/internal/store"
)

func TestBuildContextPrompt_NoFragments(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{})

	assert.Equal(t, AskiBasePrompt, got)
	assert.NotContains(t, got, "---")
	assert.NotContains(t, got, "USER CONTEXT:")
}

func TestBuildContextPrompt_MemoryOnly(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{
		Memory: map[string]json.RawMessage{
			"timezone": json.RawMessage(`"PST"`),
		},
	})

	assert.Contains(t, got, "USER CONTEXT:")
	assert.Contains(t, got, `- timezone: "PST"`)
	assert.NotContains(t, got, "RELEVANT IDEAS:")
	assert.NotContains(t, got, "PREVIOUS CONTEXT:")

	assert.True(t, strings.HasPrefix(got, AskiBasePrompt+"\n\n---\n"))
	assert.True(t, strings.HasSuffix(got, "\n---"))
}

func TestBuildContextPrompt_MemoryValuesStayJSON(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{
		Memory: map[string]json.RawMessage{
			"prefs": json.RawMessage(`{ "theme": "dark", "levels": [1, 2] }`),
		},
	})

	// Structured values are serialized compactly so they stay unambiguous.
	assert.Contains(t, got, `- prefs: {"theme":"dark","levels":[1,2]}`)
}

func TestBuildContextPrompt_MemoryKeysSorted(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{
		Memory: map[string]json.RawMessage{
			"zeta":  json.RawMessage(`1`),
			"alpha": json.RawMessage(`2`),
			"mid":   json.RawMessage(`3`),
		},
	})

	assert.Less(t, strings.Index(got, "- alpha:"), strings.Index(got, "- mid:"))
	assert.Less(t, strings.Index(got, "- mid:"), strings.Index(got, "- zeta:"))
}

func TestBuildContextPrompt_DropsNumberedAndQuoted(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{
		Drops: []store.DropMatch{
			{Content: "idea A", Category: "product"},
			{Content: "idea B"},
		},
	})

	assert.Contains(t, got, `[1] (product): "idea A"`)
	assert.Contains(t, got, `[2] (uncategorized): "idea B"`)
	assert.NotContains(t, got, "USER CONTEXT:")
	assert.NotContains(t, got, "PREVIOUS CONTEXT:")
}

func TestBuildContextPrompt_SummaryOnly(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{Summary: "We discussed roadmaps."})

	assert.Contains(t, got, "PREVIOUS CONTEXT:\nWe discussed roadmaps.")
	assert.NotContains(t, got, "USER CONTEXT:")
	assert.NotContains(t, got, "RELEVANT IDEAS:")
}

func TestBuildContextPrompt_SectionOrdering(t *testing.T) {
	got := BuildContextPrompt(ContextFragments{
		Memory:  map[string]json.RawMessage{"timezone": json.RawMessage(`"PST"`)},
		Drops:   []store.DropMatch{{Content: "idea A"}},
		Summary: "Earlier we talked about drops.",
	})

	memoryIdx := strings.Index(got, "USER CONTEXT:")
	dropsIdx := strings.Index(got, "RELEVANT IDEAS:")
	summaryIdx := strings.Index(got, "PREVIOUS CONTEXT:")

	require.NotEqual(t, -1, memoryIdx)
	require.NotEqual(t, -1, dropsIdx)
	require.NotEqual(t, -1, summaryIdx)

	assert.Less(t, memoryIdx, dropsIdx)
	assert.Less(t, dropsIdx, summaryIdx)

	// Sections are joined with a blank line.
	assert.Contains(t, got, "\"idea A\"\n\nPREVIOUS CONTEXT:")
}

func TestBuildContextPrompt_Idempotent(t *testing.T) {
	fragments := ContextFragments{
		Memory: map[string]json.RawMessage{
			"timezone": json.RawMessage(`"PST"`),
			"team":     json.RawMessage(`["ana","bo"]`),
		},
		Drops:   []store.DropMatch{{Content: "idea A", Category: "notes"}},
		Summary: "Previous chat summary.",
	}

	first := BuildContextPrompt(fragments)
	second := BuildContextPrompt(fragments)

	assert.Equal(t, first, second)
}
