package layout

import "github.com/ByLCY/cardprint/paragraph"

// 该文件定义布局结果，供布局计算、渲染与调试 JSON 共用。所有尺寸单位均为像素。

// Style 选择测量与绘制时使用的字体样式。
type Style int

const (
	StyleRegular Style = iota
	StyleItalic
	StyleBold
)

func (s Style) String() string {
	switch s {
	case StyleRegular:
		return "regular"
	case StyleItalic:
		return "italic"
	case StyleBold:
		return "bold"
	default:
		return "unknown"
	}
}

// Layout 是一张卡牌文本的完整排版结果：首行的粗体关键字加上折行后的说明文本。
type Layout struct {
	Keyword       string         `json:"keyword"`
	FontSize      float64        `json:"fontSize"`
	KeywordWidth  uint32         `json:"keywordWidth"`
	KeywordHeight uint32         `json:"keywordHeight"`
	SymbolSize    uint32         `json:"symbolSize"` // 行内符号的边长
	MaxWidth      uint32         `json:"maxWidth"`
	Lines         []MeasuredLine `json:"lines"`
	CanvasWidth   uint32         `json:"canvasWidth"`
	CanvasHeight  uint32         `json:"canvasHeight"`
}

// MeasuredLine 表示折行后的一行。
// Width 为该行内容的右边界（首行包含关键字宽度），Height 为行内各 run 的最大高度，Y 为行顶部。
type MeasuredLine struct {
	Runs   []PlacedRun `json:"runs"`
	Y      uint32      `json:"y"`
	Width  uint32      `json:"width"`
	Height uint32      `json:"height"`
}

// PlacedRun is a run with its canvas x and measured box.
type PlacedRun struct {
	paragraph.Run
	X      uint32 `json:"x"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Card 是卡牌清单中一张卡的排版结果。
type Card struct {
	Name   string  `json:"name"`
	Layout *Layout `json:"layout"`
}

// Text returns the line's content in source form, symbols written as {name}.
func (l MeasuredLine) Text() string {
	var p paragraph.Paragraph
	for _, r := range l.Runs {
		p = append(p, r.Run)
	}
	return p.String()
}
