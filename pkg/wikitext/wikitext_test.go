package wikitext

import (
	"reflect"
	"strings"
	"testing"
)

func TestPageReader(t *testing.T) {
	dump := `preamble ignored
<page><title>Geralt of Rivia</title>
[[Category:Witchers]]
some text
<title>Ciri</title>
{{Infobox character
| name = Ciri
}}
`
	r := NewPageReader(strings.NewReader(dump))

	var titles []string
	var texts []string
	for {
		p, ok := r.Next()
		if !ok {
			break
		}
		titles = append(titles, p.Title)
		texts = append(texts, p.Text)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if want := []string{"Geralt of Rivia", "Ciri"}; !reflect.DeepEqual(titles, want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	if strings.Contains(texts[0], "preamble") {
		t.Errorf("text before the first title leaked into page: %q", texts[0])
	}
	if !strings.Contains(texts[0], "[[Category:Witchers]]") {
		t.Errorf("first page text missing category: %q", texts[0])
	}
	if !strings.Contains(texts[1], "| name = Ciri") {
		t.Errorf("last page not finalized at EOF: %q", texts[1])
	}
}

func TestPageReader_Empty(t *testing.T) {
	r := NewPageReader(strings.NewReader("no titles here\n"))
	if _, ok := r.Next(); ok {
		t.Fatal("expected no pages")
	}
	if _, ok := r.Next(); ok {
		t.Fatal("expected reader to stay exhausted")
	}
}

func TestCategories(t *testing.T) {
	text := `[[Category:Witchers]] [[category:Characters_in_The_Witcher_3|Geralt]]
[[Category: Gwent (cards) ]] [[Category:]]`
	got := Categories(text)
	want := []string{"Witchers", "Characters in The Witcher 3", "Gwent (cards)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestFindInfobox(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "simple",
			text:   "intro\n{{Infobox character\n| name = Geralt\n}}\nafter",
			want:   "| name = Geralt\n",
			wantOK: true,
		},
		{
			name:   "nested template closes outer",
			text:   "{{infobox item\n| effect = {{a|{{b}}}}\n| weight = 2\n}}\n{{Other}}",
			want:   "| effect = {{a|{{b}}}}\n| weight = 2\n",
			wantOK: true,
		},
		{
			name:   "unterminated",
			text:   "{{Infobox location\n| name = Novigrad\n{{open",
			wantOK: false,
		},
		{
			name:   "absent",
			text:   "{{Quote|nothing}}",
			wantOK: false,
		},
		{
			name:   "one line",
			text:   "{{Infobox|name=x}}",
			want:   "|name=x",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindInfobox(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("FindInfobox() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FindInfobox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProperties(t *testing.T) {
	body := `| name = Vesemir
| affiliations = [[Kaer Morhen]]<br>
[[School of the Wolf]]
| notes = {{Quote
| text = inside a template
}}
| last = final value
|  = skipped
`
	got := Properties(body)
	want := []Property{
		{Name: "name", Value: "Vesemir"},
		{Name: "affiliations", Value: "[[Kaer Morhen]]<br>\n[[School of the Wolf]]"},
		{Name: "notes", Value: "{{Quote\n| text = inside a template\n}}"},
		{Name: "last", Value: "final value"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Properties() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestProperties_Unbalanced(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Property
	}{
		{
			name: "unclosed link",
			body: "| name = Geralt\n| affiliation = [[School of the Wolf\n| age = 90\n| race = [[Human]]",
			want: []Property{
				{Name: "name", Value: "Geralt"},
				{Name: "affiliation", Value: "[[School of the Wolf"},
				{Name: "age", Value: "90"},
				{Name: "race", Value: "[[Human]]"},
			},
		},
		{
			name: "unclosed template",
			body: "| name = Geralt\n| title = {{Broken\n| age = 90\n| notes = {{Quote\n| text = x\n}}",
			want: []Property{
				{Name: "name", Value: "Geralt"},
				{Name: "title", Value: "{{Broken"},
				{Name: "age", Value: "90"},
				{Name: "notes", Value: "{{Quote\n| text = x\n}}"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Properties(tt.body); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Properties() =\n%#v\nwant\n%#v", got, tt.want)
			}
		})
	}
}

func TestSplitValues(t *testing.T) {
	got := SplitValues("a<br>b<BR/> c <br />  <br>")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitValues() = %v, want %v", got, want)
	}
}

func TestCleanLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[[Kaer Morhen]]", "Kaer Morhen"},
		{"[[Geralt of Rivia|Geralt]] and '''Roach'''", "Geralt and Roach"},
		{"10 {{Crowns|{{icon}}}} crowns", "10 crowns"},
		{"''italic''", "italic"},
		{"Oxenfurt<ref>The Witcher 3</ref> &amp; Novigrad", "Oxenfurt & Novigrad"},
		{"  spaced\n  out  ", "spaced out"},
		{"{{only template}}", ""},
	}
	for _, tt := range tests {
		if got := CleanLiteral(tt.in); got != tt.want {
			t.Errorf("CleanLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractValues(t *testing.T) {
	got := ExtractValues("[[Kaer Morhen|the keep]]<br/>[[Wolf School]] members")
	want := []Value{
		{Kind: URIReference, Text: "Kaer Morhen"},
		{Kind: LiteralValue, Text: "the keep"},
		{Kind: URIReference, Text: "Wolf School"},
		{Kind: LiteralValue, Text: "Wolf School members"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractValues() = %v, want %v", got, want)
	}
}
