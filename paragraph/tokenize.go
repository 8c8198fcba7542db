package paragraph

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'cardprint.paragraph'
func tracer() tracing.Trace {
	return tracing.Select("cardprint.paragraph")
}

// 第一遍扫描的词法规则：按顺序尝试。
// 未闭合的 "{" 或空的 "{}" 不会匹配 Symbol，只能落入 Brace/Text，最终按普通文本处理。
var (
	cardLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Symbol", Pattern: `\{[^}]+\}`},
		{Name: "Brace", Pattern: `\{`},
		{Name: "Text", Pattern: `[^{]+`},
	})

	symbolTokenType = mustTokenType("Symbol")
)

// span is a pass-1 item: either a plain text span or a symbol name.
type span struct {
	symbol bool
	text   string
}

// Tokenize splits raw card text into Regular, Italic and Symbol runs.
//
// Text between "{" and the next "}" becomes a Symbol run. Outside symbols a
// "(" at depth 0 opens an Italic run that the matching ")" closes, inclusive.
// Deeper parentheses are literal content of the same Italic run, and a ")"
// at depth 0 is literal. The depth carries across symbols. Tokenize never
// fails: unbalanced input degrades to plain text.
func Tokenize(raw string) Paragraph {
	if raw == "" {
		return Paragraph{}
	}
	spans := scanSymbols(raw)
	p := italicize(spans)
	tracer().Debugf("tokenized %d bytes into %d runs", len(raw), len(p))
	return p
}

// scanSymbols is the first pass: separate symbols from the text between them.
func scanSymbols(raw string) []span {
	var spans []span
	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		spans = append(spans, span{text: text.String()})
		text.Reset()
	}

	lex, err := cardLexer.LexString("", raw)
	if err != nil {
		return []span{{text: raw}}
	}
	consumed := 0
	for {
		tok, err := lex.Next()
		if err != nil {
			// 规则覆盖所有字符，理论上不会出错；出错时剩余部分按文本处理。
			tracer().Errorf("card text lexer: %v", err)
			text.WriteString(raw[consumed:])
			break
		}
		if tok.EOF() {
			break
		}
		consumed += len(tok.Value)
		if tok.Type == symbolTokenType {
			flush()
			name := tok.Value[1 : len(tok.Value)-1]
			spans = append(spans, span{symbol: true, text: name})
			continue
		}
		text.WriteString(tok.Value)
	}
	flush()
	return spans
}

// italicize is the second pass: parenthesis depth tracking over the spans.
func italicize(spans []span) Paragraph {
	p := Paragraph{}
	depth := 0
	var phrase strings.Builder

	// emit 输出当前累积的 run；符号之后紧跟的括号也会开启新 run，不会丢失字符。
	emit := func(kind Kind) {
		if phrase.Len() > 0 {
			p = append(p, Run{Kind: kind, Text: phrase.String()})
		}
		phrase.Reset()
	}
	ambient := func() Kind {
		if depth > 0 {
			return KindItalic
		}
		return KindRegular
	}

	for _, s := range spans {
		if s.symbol {
			emit(ambient())
			p = append(p, Sym(s.text))
			continue
		}
		// 按字节遍历：括号都是 ASCII，非法 UTF-8 字节原样保留
		for i := 0; i < len(s.text); i++ {
			c := s.text[i]
			switch c {
			case '(':
				if depth == 0 {
					emit(KindRegular)
				}
				phrase.WriteByte(c)
				depth++
			case ')':
				phrase.WriteByte(c)
				switch depth {
				case 0:
					// 笑脸 :) 之类，按普通字符处理
				case 1:
					depth--
					emit(KindItalic)
				default:
					depth--
				}
			default:
				phrase.WriteByte(c)
			}
		}
	}
	emit(ambient())
	return p
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := cardLexer.Symbols()[name]
	if !ok {
		panic("paragraph: token " + name + " not defined")
	}
	return tt
}
