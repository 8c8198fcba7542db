package layout

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/cardprint/binding"
	"github.com/ByLCY/cardprint/dsl"
	"github.com/ByLCY/cardprint/paragraph"
)

// settings 是某张卡生效的排版参数。
type settings struct {
	size  Length
	width Length
	dpi   float64
}

// BuildSheet 根据卡牌清单 AST 逐张生成排版结果。
// 参数优先级：单张卡的参数 > 清单级设置 > BuildOptions > 默认值。
func BuildSheet(doc *dsl.Sheet, data any, opts BuildOptions) ([]Card, error) {
	if doc == nil {
		return nil, fmt.Errorf("卡牌清单为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}

	base := settings{
		size:  Length{Value: DefaultFontSize, Unit: UnitPX},
		width: DefaultWidth,
		dpi:   DefaultDPI,
	}
	if opts.FontSize > 0 {
		base.size = Length{Value: opts.FontSize, Unit: UnitPX}
	}
	if !opts.Width.IsZero() {
		base.width = opts.Width
	}
	if opts.DPI > 0 {
		base.dpi = opts.DPI
	}
	for _, s := range doc.Settings() {
		if err := base.apply(s.Key, string(s.Value)); err != nil {
			return nil, fmt.Errorf("第 %d 行设置无效: %w", s.Pos.Line, err)
		}
	}

	cards := make([]Card, 0, len(doc.Cards()))
	for _, c := range doc.Cards() {
		eff := base
		for _, p := range c.Params {
			if err := eff.apply(p.Key, string(p.Value)); err != nil {
				return nil, fmt.Errorf("卡牌 %s（第 %d 行）参数无效: %w", c.Keyword, c.Pos.Line, err)
			}
		}
		keyword, err := expand(string(c.Keyword), data)
		if err != nil {
			return nil, fmt.Errorf("卡牌 %s（第 %d 行）: %w", c.Keyword, c.Pos.Line, err)
		}
		text, err := expand(c.Content(), data)
		if err != nil {
			return nil, fmt.Errorf("卡牌 %s（第 %d 行）: %w", c.Keyword, c.Pos.Line, err)
		}

		para := paragraph.Tokenize(text)
		lead := keyword
		if len(para) > 0 && keyword != "" {
			lead += " " // 关键字与说明文本之间留一个粗体空格
		}
		l, err := Build(opts.Measurer, lead, para, eff.sizePx(), eff.width.ToPixels(eff.dpi))
		if err != nil {
			return nil, fmt.Errorf("排版卡牌 %s 失败: %w", keyword, err)
		}
		cards = append(cards, Card{Name: keyword, Layout: l})
	}
	tracer().Infof("sheet %q: laid out %d cards", doc.Name, len(cards))
	return cards, nil
}

func (s *settings) apply(key, value string) error {
	switch strings.ToLower(key) {
	case "size", "font-size":
		l, err := ParseLength(value)
		if err != nil {
			return err
		}
		if l.Value <= 0 {
			return fmt.Errorf("字号必须为正数: %q", value)
		}
		s.size = l
	case "width":
		l, err := ParseLength(value)
		if err != nil {
			return err
		}
		if l.Value <= 0 {
			return fmt.Errorf("宽度必须为正数: %q", value)
		}
		s.width = l
	case "dpi":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("dpi 无效: %q", value)
		}
		s.dpi = v
	default:
		return fmt.Errorf("未知设置项 %q", key)
	}
	return nil
}

// sizePx 返回像素字号；物理单位（如 12pt）按 dpi 换算，不取整。
func (s settings) sizePx() float64 {
	if !s.size.Physical() {
		return s.size.Value
	}
	return s.size.ToMM() / MmPerIn * s.dpi
}

// expand 替换 ${...} 占位符并做 NFC 规范化，保证组合字符按单个字形测量。
func expand(text string, data any) (string, error) {
	out, missing := binding.Expand(text, data)
	if len(missing) > 0 {
		return "", fmt.Errorf("数据中找不到 %s", strings.Join(missing, ", "))
	}
	return norm.NFC.String(out), nil
}
