package textfile

import (
	"bytes"
	"reflect"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		table [][]string
		want  string
	}{
		{name: "plain", table: [][]string{{"a", "b"}, {"c", "d"}}, want: "a b\nc d"},
		{name: "space wraps", table: [][]string{{"00:00:01:00", "Marker One"}}, want: `00:00:01:00 "Marker One"`},
		{name: "newline wraps", table: [][]string{{"a\nb"}}, want: "\"a\nb\""},
		{name: "quote alone is verbatim", table: [][]string{{`say"hi"`}}, want: `say"hi"`},
		{name: "quote doubled when wrapped", table: [][]string{{`say "hi"`}}, want: `"say ""hi"""`},
		{name: "leading quote wraps", table: [][]string{{`"x`}}, want: `"""x"`},
		{name: "empty fields", table: [][]string{{"", "a", ""}}, want: " a "},
		{name: "empty table", table: nil, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.table); got != tc.want {
				t.Fatalf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tables := [][][]string{
		{{"00:00:01:00", "Intro"}, {"00:01:10:12", "Second marker"}},
		{{"", "a", ""}, {"b", ""}},
		{{"line one\nline two", "x"}},
		{{`he said "go"`, `plain"quote`, `trailing"`}},
		{{`"leading`, `""`, `"`}},
		{{"", ""}},
		{{"a  b", " lead", "trail "}},
		{{"mixed \"q\"\nand space", "ok"}},
	}
	for _, table := range tables {
		got := Parse(Render(table))
		if !reflect.DeepEqual(got, table) {
			t.Errorf("Parse(Render(%q)) = %q", table, got)
		}
	}
}

func TestParse_DropsBlankLines(t *testing.T) {
	got := Parse("a b\n\nc d\n")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %q, want %q", got, want)
	}
	if got := Parse(""); got != nil {
		t.Fatalf("Parse(\"\") = %q, want nil", got)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, [][]string{{"a", "b c"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.String() != `a "b c"` {
		t.Fatalf("Write() wrote %q", buf.String())
	}
}
