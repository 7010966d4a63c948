package schema

import (
	"fmt"
	"strings"
)

// Segment label prefixes. A downstream renderer re-splits the assembled
// document on these, so their exact spelling is part of the contract.
const (
	labelELI5        = "ELI5: "
	labelMnemonic    = "Mnemonic: "
	labelConnections = "Connections:"
)

// AssembleDocument merges one raw subtopic record's structured fields
// into a single formatted document. Segment order is fixed regardless
// of which fields are absent: primary content (or the bullet-joined
// high-yield list when primary is empty), then ELI5, then Mnemonic,
// then Connections. Segments are separated by a blank line. The input
// is never mutated.
func AssembleDocument(raw Raw) string {
	content := raw.str("content", "notes", "description")

	if content == "" {
		if bullets, ok := raw.slice("high_yield"); ok {
			var lines []string
			for _, b := range bullets {
				if s := scalarString(b); s != "" {
					lines = append(lines, "• "+s)
				}
			}
			content = strings.Join(lines, "\n")
		}
	}

	if eli5 := raw.str("eli5", "explain_like_i_am_stupid"); eli5 != "" {
		content = appendSegment(content, labelELI5+eli5)
	}
	if mn := raw.str("mnemonic"); mn != "" {
		content = appendSegment(content, labelMnemonic+mn)
	}
	if conns, ok := raw.slice("connections"); ok && len(conns) > 0 {
		var lines []string
		for _, c := range conns {
			cr, ok := asRaw(c)
			if !ok {
				continue
			}
			lines = append(lines, connectionLine(cr))
		}
		if len(lines) > 0 {
			content = appendSegment(content, labelConnections+"\n"+strings.Join(lines, "\n"))
		}
	}
	return content
}

func appendSegment(content, segment string) string {
	if content == "" {
		return segment
	}
	return content + "\n\n" + segment
}

func connectionLine(c Raw) string {
	line := "• " + c.str("topic")
	if sub := c.str("subtopic"); sub != "" {
		line += " — " + sub
	}
	if reason := c.str("reason"); reason != "" {
		line += fmt.Sprintf(" (%s)", reason)
	}
	return line
}

// SlideReference extracts the slide pointer for a subtopic record,
// joining a slides array with ", " when that variant is used.
func SlideReference(raw Raw) string {
	if ref := raw.str("slide_reference", "slide_ref"); ref != "" {
		return ref
	}
	if slides, ok := raw.slice("slides"); ok {
		var parts []string
		for _, s := range slides {
			if v := scalarString(s); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
