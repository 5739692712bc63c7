package wikitext

import (
	"regexp"
	"strings"
)

const infoboxMarker = "{{infobox"

var (
	categoryPattern = regexp.MustCompile(`(?i)\[\[Category:([^\]]+)\]\]`)
	propertyPattern = regexp.MustCompile(`^\s*\|\s*([^=|{}\[\]]*?)\s*=(.*)$`)
)

// Property is one "| name = value" entry of an infobox.
type Property struct {
	Name  string
	Value string
}

// Categories returns the normalized names of all category markers in text,
// in document order.
func Categories(text string) []string {
	var out []string
	for _, m := range categoryPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if i := strings.IndexByte(name, '|'); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// FindInfobox returns the body of the first {{Infobox ...}} template in text.
// Nested templates are skipped by counting brace pairs, so the body always
// ends at the matching outer close.
func FindInfobox(text string) (body string, found bool) {
	defer func() {
		if r := recover(); r != nil {
			body, found = "", false
		}
	}()

	start := strings.Index(strings.ToLower(text), infoboxMarker)
	if start < 0 {
		return "", false
	}

	depth := 2
	for i := start + 2; i < len(text)-1; {
		switch text[i : i+2] {
		case "{{":
			depth += 2
			i += 2
		case "}}":
			depth -= 2
			if depth == 0 {
				return text[bodyStart(text, start, i):i], true
			}
			i += 2
		default:
			i++
		}
	}
	return "", false
}

// bodyStart is the offset just past the "{{Infobox <type>" line, or just past
// the marker for one-line templates.
func bodyStart(text string, start, end int) int {
	nl := strings.IndexByte(text[start:end], '\n')
	if nl < 0 {
		return start + len(infoboxMarker)
	}
	return start + nl + 1
}

// Properties splits an infobox body into its properties. A value runs across
// lines until the next property line or the end of the body; a "|" line
// inside a still-open nested template belongs to the current value. Links
// never span lines, so an unclosed "[[" ends with its line. A template left
// open at the end of the body is treated as text and the lines it swallowed
// are split again.
func Properties(body string) []Property {
	return properties(strings.Split(body, "\n"))
}

func properties(all []string) []Property {
	var (
		out     []Property
		current *Property
		lines   []string
		start   int // index in all of current's first line
		depth   int
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Value = strings.TrimSpace(strings.Join(lines, "\n"))
		out = append(out, *current)
		current, lines, depth = nil, nil, 0
	}

	for n, line := range all {
		if depth <= 0 {
			if m := propertyPattern.FindStringSubmatch(line); m != nil {
				flush()
				name := strings.TrimSpace(m[1])
				if name == "" {
					continue
				}
				current = &Property{Name: name}
				lines = []string{m[2]}
				start = n
				depth = nesting(m[2])
				continue
			}
		}
		if current == nil {
			continue
		}
		lines = append(lines, line)
		depth += nesting(line)
	}

	if current != nil && depth > 0 && len(lines) > 1 {
		lines = lines[:1]
		flush()
		return append(out, properties(all[start+1:])...)
	}
	flush()
	return out
}

// nesting is the net number of template openers in s.
func nesting(s string) int {
	return strings.Count(s, "{{") - strings.Count(s, "}}")
}
