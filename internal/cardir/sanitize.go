package cardir

import "strings"

// Sanitizer strips unsupported markup from textual fields before a
// renderer emits them (spec §4.1 "Sanitization pipeline"). Every
// mutation increments the renderer's sanitized_count.
type Sanitizer struct {
	SupportsHTML     bool
	SupportsMarkdown bool
}

// Clean applies the two-step pipeline to s, returning the cleaned
// text and whether anything was removed (used to bump
// sanitized_count by 1 per field that changed, not per character).
func (s Sanitizer) Clean(text string) (cleaned string, mutated bool) {
	out := text
	if !s.SupportsHTML {
		if stripped := stripHTMLTags(out); stripped != out {
			out = stripped
			mutated = true
		}
	}
	if !s.SupportsMarkdown {
		if stripped := stripMarkdown(out); stripped != out {
			out = stripped
			mutated = true
		}
	}
	return out, mutated
}

// stripHTMLTags removes every "<...>" substring.
func stripHTMLTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripMarkdown removes the markdown control characters *, _, ` — it
// does not attempt to preserve emphasis semantics, only to remove
// characters a non-markdown renderer would otherwise show literally.
func stripMarkdown(s string) string {
	return strings.NewReplacer("*", "", "_", "", "`", "").Replace(s)
}
