package wikitext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ValueKind tags an extracted infobox value.
type ValueKind int

const (
	// URIReference values name a linked page.
	URIReference ValueKind = iota
	// LiteralValue values are cleaned display text.
	LiteralValue
)

// Value is one fact extracted from an infobox property value.
type Value struct {
	Kind ValueKind
	Text string
}

// Link is a [[Target]] or [[Target|Label]] wikilink.
type Link struct {
	Target string
	Label  string
}

var (
	breakPattern    = regexp.MustCompile(`(?i)<br\s*/?>`)
	linkPattern     = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
	templatePattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// SplitValues splits a raw property value on line-break tags.
func SplitValues(raw string) []string {
	var out []string
	for _, part := range breakPattern.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Links returns every wikilink in value, in order. Links with an empty
// target are skipped.
func Links(value string) []Link {
	var out []Link
	for _, m := range linkPattern.FindAllStringSubmatch(value, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		out = append(out, Link{Target: target, Label: strings.TrimSpace(m[2])})
	}
	return out
}

// CleanLiteral renders wiki markup in value down to plain text.
func CleanLiteral(value string) string {
	value = linkPattern.ReplaceAllStringFunc(value, func(s string) string {
		m := linkPattern.FindStringSubmatch(s)
		if strings.TrimSpace(m[2]) != "" {
			return m[2]
		}
		return m[1]
	})
	for templatePattern.MatchString(value) {
		value = templatePattern.ReplaceAllString(value, "")
	}
	value = strings.NewReplacer("'''", "", "''", "", "[[", "", "]]", "").Replace(value)
	value = stripHTML(value)
	return strings.TrimSpace(spacePattern.ReplaceAllString(value, " "))
}

// stripHTML drops tags, comments and <ref> bodies, and decodes entities.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	inRef := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "ref" {
				inRef++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "ref" && inRef > 0 {
				inRef--
			}
		case html.TextToken:
			if inRef == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// ExtractValues turns a raw property value into facts: per split value, one
// URIReference for each link target and one LiteralValue for the cleaned
// text when it is non-empty.
func ExtractValues(raw string) []Value {
	var out []Value
	for _, part := range SplitValues(raw) {
		for _, l := range Links(part) {
			out = append(out, Value{Kind: URIReference, Text: l.Target})
		}
		if lit := CleanLiteral(part); lit != "" {
			out = append(out, Value{Kind: LiteralValue, Text: lit})
		}
	}
	return out
}
