package layout

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/cardprint/fault"
	"github.com/ByLCY/cardprint/paragraph"
)

// tracer traces with key 'cardprint.layout'
func tracer() tracing.Trace {
	return tracing.Select("cardprint.layout")
}

// symbolReference 用于确定行内符号的边长：与正文字体的行高一致。
const symbolReference = "."

// Build 将粗体关键字与说明文本排成若干行，使用贪心折行算法。
//
// 关键字固定位于首行开头且不会折行；说明文本只在空白处断开，单个词即使超宽也不会被拆开，
// 而是独占一行。宽度比较使用严格大于：恰好等于 maxWidthPx 的行是合法的。
// 画布宽度固定为 maxWidthPx，高度为 max(关键字高度, 首行高度) 加上其余各行高度之和。
func Build(m Measurer, keyword string, explanation paragraph.Paragraph, sizePx float64, maxWidthPx uint32) (*Layout, error) {
	if m == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}
	if sizePx <= 0 {
		return nil, fmt.Errorf("layout: 字号必须为正数，实际 %g", sizePx)
	}
	if err := explanation.Validate(); err != nil {
		return nil, err
	}
	words, err := splitWords(explanation)
	if err != nil {
		return nil, err
	}

	kwW, kwH := m.Measure(keyword, StyleBold, sizePx)
	_, symSize := m.Measure(symbolReference, StyleRegular, sizePx)
	pl := placer{m: m, size: sizePx, symbol: symSize}

	res := &Layout{
		Keyword:       keyword,
		FontSize:      sizePx,
		KeywordWidth:  kwW,
		KeywordHeight: kwH,
		SymbolSize:    symSize,
		MaxWidth:      maxWidthPx,
		CanvasWidth:   maxWidthPx,
	}

	queue := words
	offset := kwW // 仅首行需要让出关键字宽度
	var y uint32
	for first := true; first || len(queue) > 0; first = false {
		n, line, err := pl.fill(queue, offset, maxWidthPx)
		if err != nil {
			return nil, err
		}
		line.Y = y
		res.Lines = append(res.Lines, line)
		if first {
			y = max(kwH, line.Height)
		} else {
			y += line.Height
		}
		queue = queue[n:]
		offset = 0
	}
	res.CanvasHeight = y

	tracer().Debugf("layout %q: %d words in %d lines, canvas %dx%d",
		keyword, len(words), len(res.Lines), res.CanvasWidth, res.CanvasHeight)
	return res, nil
}

// word is the smallest unit a line can be broken after: a whitespace-delimited
// piece of one run kind. Symbols are always words of their own, so "{T}:"
// yields a Symbol word followed by a Regular ":" word with spaced unset.
type word struct {
	run    paragraph.Run
	spaced bool // 源文本中与前一个词之间有空白
}

// splitWords flattens the paragraph into words, keeping each piece's kind.
func splitWords(p paragraph.Paragraph) ([]word, error) {
	var words []word
	spaced := false
	for i, r := range p {
		switch r.Kind {
		case paragraph.KindSymbol:
			words = append(words, word{run: r, spaced: spaced})
			spaced = false
		case paragraph.KindRegular, paragraph.KindItalic:
			fields := strings.Fields(r.Text)
			if len(fields) == 0 {
				spaced = true
				continue
			}
			leading := spaced || startsWithSpace(r.Text)
			for j, f := range fields {
				words = append(words, word{run: paragraph.Run{Kind: r.Kind, Text: f}, spaced: j > 0 || leading})
			}
			spaced = endsWithSpace(r.Text)
		default:
			return nil, fault.Malformed("run %d has unknown kind %d", i, int(r.Kind))
		}
	}
	return words, nil
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// placer measures candidate lines.
type placer struct {
	m      Measurer
	size   float64
	symbol uint32
}

// fill picks how many words of queue go on the next line. It packs words
// greedily up to and including the first one that overflows, then moves words
// from the tail back to the queue until the line fits or one word is left.
func (p placer) fill(queue []word, offset, maxWidth uint32) (int, MeasuredLine, error) {
	n := min(1, len(queue))
	line, err := p.place(queue[:n], offset)
	if err != nil {
		return 0, MeasuredLine{}, err
	}
	for n < len(queue) && line.Width <= maxWidth {
		n++
		if line, err = p.place(queue[:n], offset); err != nil {
			return 0, MeasuredLine{}, err
		}
	}
	for n > 1 && line.Width > maxWidth {
		n--
		if line, err = p.place(queue[:n], offset); err != nil {
			return 0, MeasuredLine{}, err
		}
	}
	return n, line, nil
}

// place lays words out left to right starting at x. Words that were separated
// by whitespace get a single space, others touch. Words of the same text kind
// share one run; the separating space belongs to the preceding text run, else
// to the following one. Two symbols in a row are separated by a Regular space run.
func (p placer) place(words []word, x uint32) (MeasuredLine, error) {
	var runs []paragraph.Run
	for _, w := range words {
		piece := w.run
		if len(runs) == 0 {
			runs = append(runs, piece)
			continue
		}
		last := &runs[len(runs)-1]
		switch {
		case w.spaced && last.IsText() && piece.IsText() && last.Kind == piece.Kind:
			last.Text += " " + piece.Text
		case w.spaced && last.IsText():
			last.Text += " "
			runs = append(runs, piece)
		case w.spaced && piece.IsText():
			runs = append(runs, paragraph.Run{Kind: piece.Kind, Text: " " + piece.Text})
		case w.spaced:
			runs = append(runs, paragraph.Regular(" "), piece)
		case last.IsText() && last.Kind == piece.Kind:
			last.Text += piece.Text
		default:
			runs = append(runs, piece)
		}
	}

	line := MeasuredLine{Runs: make([]PlacedRun, 0, len(runs))}
	for _, r := range runs {
		w, h, err := p.measure(r)
		if err != nil {
			return MeasuredLine{}, err
		}
		line.Runs = append(line.Runs, PlacedRun{Run: r, X: x, Width: w, Height: h})
		x += w
		line.Height = max(line.Height, h)
	}
	line.Width = x
	return line, nil
}

func (p placer) measure(r paragraph.Run) (uint32, uint32, error) {
	switch r.Kind {
	case paragraph.KindRegular:
		w, h := p.m.Measure(r.Text, StyleRegular, p.size)
		return w, h, nil
	case paragraph.KindItalic:
		w, h := p.m.Measure(r.Text, StyleItalic, p.size)
		return w, h, nil
	case paragraph.KindSymbol:
		return p.symbol, p.symbol, nil
	default:
		return 0, 0, fault.Malformed("cannot measure run of kind %d", int(r.Kind))
	}
}
