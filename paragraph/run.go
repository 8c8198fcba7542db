package paragraph

import (
	"fmt"
	"strings"

	"github.com/ByLCY/cardprint/fault"
)

// Kind tags a Run as plain text, parenthesised (italic) text or an inline symbol.
type Kind int

const (
	KindRegular Kind = iota
	KindItalic
	KindSymbol
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindItalic:
		return "italic"
	case KindSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText 让调试 JSON 中的 kind 以名称输出。
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindRegular, KindItalic, KindSymbol:
		return []byte(k.String()), nil
	default:
		return nil, fault.Malformed("unknown run kind %d", int(k))
	}
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "regular":
		*k = KindRegular
	case "italic":
		*k = KindItalic
	case "symbol":
		*k = KindSymbol
	default:
		return fault.Malformed("unknown run kind %q", string(b))
	}
	return nil
}

// Run is one maximal span sharing a style. For KindSymbol, Text holds the
// symbol name, which is resolved to vector art and never measured as text.
type Run struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

func Regular(text string) Run { return Run{Kind: KindRegular, Text: text} }
func Italic(text string) Run  { return Run{Kind: KindItalic, Text: text} }
func Sym(name string) Run     { return Run{Kind: KindSymbol, Text: name} }

// IsText reports whether the run is drawn with a font.
func (r Run) IsText() bool { return r.Kind == KindRegular || r.Kind == KindItalic }

// String returns the source form of the run; symbols are written back as {name}.
func (r Run) String() string {
	if r.Kind == KindSymbol {
		return "{" + r.Text + "}"
	}
	return r.Text
}

// Paragraph is the ordered run sequence of one rules text.
type Paragraph []Run

// String concatenates the source forms of all runs.
func (p Paragraph) String() string {
	var sb strings.Builder
	for _, r := range p {
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Validate checks that every run has a known kind and non-empty content.
func (p Paragraph) Validate() error {
	for i, r := range p {
		switch r.Kind {
		case KindRegular, KindItalic, KindSymbol:
			if r.Text == "" {
				return fault.Malformed("run %d (%s) is empty", i, r.Kind)
			}
		default:
			return fault.Malformed("run %d has unknown kind %d", i, int(r.Kind))
		}
	}
	return nil
}
