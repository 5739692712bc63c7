// Package wikitext reads pages out of a line-oriented wiki dump and extracts
// categories and infobox properties from their wikitext.
package wikitext

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"witcherkg/pkg/model"
)

const maxLineSize = 16 * 1024 * 1024

var titlePattern = regexp.MustCompile(`<title>(.*?)</title>`)

// PageReader streams pages from a dump. A page starts at a line carrying a
// <title> marker and runs until the next such line or EOF.
type PageReader struct {
	scanner *bufio.Scanner
	title   string
	text    strings.Builder
	started bool
	done    bool
}

// NewPageReader creates a reader over r.
func NewPageReader(r io.Reader) *PageReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)
	return &PageReader{scanner: s}
}

// Next returns the next finalized page. It returns false at EOF or on a read
// error; check Err afterwards.
func (r *PageReader) Next() (model.Page, bool) {
	if r.done {
		return model.Page{}, false
	}
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if m := titlePattern.FindStringSubmatch(line); m != nil {
			prev, had := r.flush()
			r.title = strings.TrimSpace(m[1])
			r.started = true
			if had {
				return prev, true
			}
			continue
		}
		if r.started {
			r.text.WriteString(line)
			r.text.WriteByte('\n')
		}
	}
	r.done = true
	return r.flush()
}

// Err returns the first non-EOF error encountered by the scanner.
func (r *PageReader) Err() error {
	return r.scanner.Err()
}

func (r *PageReader) flush() (model.Page, bool) {
	if !r.started {
		return model.Page{}, false
	}
	p := model.Page{Title: r.title, Text: r.text.String()}
	r.text.Reset()
	r.started = false
	return p, true
}
