package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:px|pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sheetParser = participle.MustBuild[Sheet](
		participle.Lexer(sheetLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Sheet is the root AST node of a card sheet file:
//
//	sheet Reminders {
//	  size: 38
//	  width: 625px
//	  card Haste { "(This creature can attack and {T} as soon as it comes under your control.)" }
//	}
type Sheet struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    Name           `parser:"Newline* 'sheet' @(String | Ident)"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Entry is either a card or a sheet-wide setting.
type Entry struct {
	Card    *Card    `parser:"  @@"`
	Setting *Setting `parser:"| @@"`
}

// Setting uses colon syntax (key: value).
type Setting struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value Name           `parser:"@(Number | String | Ident)"`
}

// Card 描述一张卡：关键字、可选的覆盖参数（如 size 32）以及说明文本。
type Card struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Keyword Name           `parser:"'card' @(String | Ident)"`
	Params  []*Param       `parser:"@@*"`
	Text    []*TextLiteral `parser:"Newline* '{' Newline* ( @@ Newline* )* '}'"`
}

// Param is a per-card override written as "key value".
type Param struct {
	Key   string `parser:"@Ident"`
	Value Name   `parser:"@(Number | String | Ident)"`
}

// TextLiteral encapsulates raw string statements within a card body.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Settings returns the sheet-wide settings in source order.
func (s *Sheet) Settings() []*Setting {
	var out []*Setting
	for _, e := range s.Entries {
		if e.Setting != nil {
			out = append(out, e.Setting)
		}
	}
	return out
}

// Cards returns the cards in source order.
func (s *Sheet) Cards() []*Card {
	var out []*Card
	for _, e := range s.Entries {
		if e.Card != nil {
			out = append(out, e.Card)
		}
	}
	return out
}

// Content joins the card's string literals with single spaces.
func (c *Card) Content() string {
	parts := make([]string, 0, len(c.Text))
	for _, t := range c.Text {
		parts = append(parts, string(t.Value))
	}
	return strings.Join(parts, " ")
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Name 可以写成标识符、数字或字符串字面量；字符串会被去掉引号。
type Name string

// Capture implements participle.Capture.
func (n *Name) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("name capture requires value")
	}
	v := values[0]
	if strings.HasPrefix(v, `"`) {
		unquoted, err := strconv.Unquote(v)
		if err != nil {
			return err
		}
		v = unquoted
	}
	*n = Name(v)
	return nil
}

// Parse parses sheet content from an io.Reader.
func Parse(r io.Reader) (*Sheet, error) {
	return sheetParser.Parse("", r)
}

// ParseString parses sheet content from a string.
func ParseString(input string) (*Sheet, error) {
	return sheetParser.ParseString("", input)
}
