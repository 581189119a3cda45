package asm

import (
	"regexp"
	"strings"
)

// ScannedLine is the structured form of one source line. Operand
// substrings are split apart here but not yet given meaning.
type ScannedLine struct {
	Line     int
	Text     string
	Label    string
	Colon    bool
	Mnemonic string
	Operands []string
	Comment  string
}

// line := [label [':']] [ws mnemonic [ws operand-list]] [ws] [';' comment]
// A label is only recognized in the first column; operands may not
// contain unescaped spaces, commas or semicolons.
var lineRe = regexp.MustCompile(
	`^(?:([a-z0-9?_@]+)(:)?)?` + // label
		`(?:[ \t]+([a-z0-9?_@]+))?` + // mnemonic
		`(?:[ \t]+([^ \t;]+))?` + // operand list
		`[ \t]*(?:;(.*))?$`) // comment

// normalize lower-cases a raw line, expands tabs and trims trailing
// whitespace, the form the grammar is defined over.
func normalize(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimRight(s, " \r\n")
}

// Scan converts one normalized source line into a ScannedLine. A line
// the grammar cannot match is a syntax error.
func Scan(num int, text string) (*ScannedLine, error) {
	m := lineRe.FindStringSubmatch(text)
	if m == nil {
		return nil, errorf(num, SyntaxError, "syntax error: %s", strings.TrimSpace(text))
	}
	s := &ScannedLine{
		Line:     num,
		Text:     text,
		Label:    m[1],
		Colon:    m[2] == ":",
		Mnemonic: m[3],
		Comment:  m[5],
	}
	if m[4] != "" {
		s.Operands = strings.Split(m[4], ",")
		for _, op := range s.Operands {
			if op == "" {
				return nil, errorf(num, SyntaxError, "empty operand: %s", strings.TrimSpace(text))
			}
		}
	}
	return s, nil
}
