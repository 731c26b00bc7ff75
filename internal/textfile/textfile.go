// Package textfile encodes tables as space-delimited text. A field is
// wrapped in double quotes when it contains a space or a newline, or when
// it starts with a double quote; quotes inside a wrapped field are
// doubled. Unwrapped fields are written verbatim.
package textfile

import (
	"io"
	"strings"
)

const (
	sep     = ' '
	newline = '\n'
	quote   = '"'
)

// Render encodes table. Records are separated by a newline with no
// trailing newline.
func Render(table [][]string) string {
	var b strings.Builder
	for i, record := range table {
		if i > 0 {
			b.WriteByte(newline)
		}
		for j, field := range record {
			if j > 0 {
				b.WriteByte(sep)
			}
			b.WriteString(encodeField(field))
		}
	}
	return b.String()
}

// Write renders table to w.
func Write(w io.Writer, table [][]string) error {
	_, err := io.WriteString(w, Render(table))
	return err
}

func encodeField(s string) string {
	wrap := strings.ContainsRune(s, sep) ||
		strings.ContainsRune(s, newline) ||
		strings.HasPrefix(s, string(quote))
	if !wrap {
		return s
	}
	return string(quote) + strings.ReplaceAll(s, `"`, `""`) + string(quote)
}

// Parse decodes text produced by Render. Blank lines, records holding a
// single empty field, are dropped.
func Parse(text string) [][]string {
	var (
		table     [][]string
		record    []string
		field     strings.Builder
		quoteOpen bool
		midQuote  bool // previous rune was a quote inside a quoted field
	)

	closeField := func() {
		record = append(record, field.String())
		field.Reset()
		quoteOpen = false
	}
	closeRecord := func() {
		if len(record) == 1 && record[0] == "" {
			record = nil
			return
		}
		if len(record) > 0 {
			table = append(table, record)
			record = nil
		}
	}

	for _, r := range text + string(newline) {
		switch r {
		case sep:
			if midQuote {
				quoteOpen = false
			}
			if quoteOpen {
				field.WriteRune(r)
			} else {
				closeField()
			}
			midQuote = false

		case quote:
			switch {
			case !quoteOpen && field.Len() == 0:
				quoteOpen = true
			case quoteOpen && midQuote:
				field.WriteRune(r)
				midQuote = false
			case quoteOpen:
				midQuote = true
			default:
				field.WriteRune(r)
				midQuote = false
			}

		case newline:
			if !quoteOpen || midQuote {
				closeField()
				closeRecord()
			} else {
				field.WriteRune(r)
			}
			midQuote = false

		default:
			field.WriteRune(r)
			midQuote = false
		}
	}

	return table
}
