package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"syntrise.com/core/internal/store"
)

// AskiBasePrompt is the fixed identity instruction for the assistant. It is
// always the first part of the assembled system prompt, and the entire
// prompt when no context fragments are available.
const AskiBasePrompt = `You are Aski, an AI assistant in Syntrise ecosystem.

IDENTITY:
- Cognitive partner, not just a tool
- You remember context from previous conversations
- You understand there may be multiple people in the room
- Optimized for ideas and voice interaction

VOICE GUIDELINES:
- Keep responses concise (2-3 sentences for voice)
- Natural, conversational language
- No markdown in voice responses
- No emojis in voice output

SAFETY:
- NEVER ask for financial information
- If user shares sensitive data, warn them
- Respect privacy

PERSONALITY:
- Warm but professional
- Proactive in finding connections
- Honest about limitations`

// ContextFragments are the optional, independently-sourced inputs to prompt
// assembly. Absent fragments are simply omitted from the output.
type ContextFragments struct {
	Memory  map[string]json.RawMessage
	Drops   []store.DropMatch
	Summary string
}

// BuildContextPrompt assembles the system prompt from the given fragments.
// Sections appear in a fixed order (memory, drops, prior summary), each
// under its own heading and joined by a blank line. With no fragments the
// result is exactly AskiBasePrompt. Pure; identical input yields
// byte-identical output.
func BuildContextPrompt(fragments ContextFragments) string {
	var parts []string

	if len(fragments.Memory) > 0 {
		keys := make([]string, 0, len(fragments.Memory))
		for k := range fragments.Memory {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, compactJSON(fragments.Memory[k])))
		}
		parts = append(parts, "USER CONTEXT:\n"+strings.Join(lines, "\n"))
	}

	if len(fragments.Drops) > 0 {
		lines := make([]string, 0, len(fragments.Drops))
		for i, d := range fragments.Drops {
			category := d.Category
			if category == "" {
				category = "uncategorized"
			}
			lines = append(lines, fmt.Sprintf("[%d] (%s): %q", i+1, category, d.Content))
		}
		parts = append(parts, "RELEVANT IDEAS:\n"+strings.Join(lines, "\n"))
	}

	if fragments.Summary != "" {
		parts = append(parts, "PREVIOUS CONTEXT:\n"+fragments.Summary)
	}

	if len(parts) == 0 {
		return AskiBasePrompt
	}

	return AskiBasePrompt + "\n\n---\n" + strings.Join(parts, "\n\n") + "\n---"
}

// compactJSON renders a stored JSON value in its compact form so structured
// values stay unambiguous in the prompt. Malformed values are rendered
// verbatim rather than dropped.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
