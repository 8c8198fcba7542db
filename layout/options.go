package layout

// BuildOptions 配置卡牌清单排版阶段所需的依赖与默认值。
type BuildOptions struct {
	Measurer Measurer
	FontSize float64 // 像素；<=0 时使用 DefaultFontSize
	Width    Length  // 画布宽度；为零时使用 DefaultWidth
	DPI      float64 // 物理单位换算像素时使用；<=0 时使用 DefaultDPI
}

// 默认值与热敏打印机纸宽相匹配。
const (
	DefaultFontSize = 38.0
	DefaultDPI      = 300.0
)

// DefaultWidth is the canvas width used when neither options nor the sheet set one.
var DefaultWidth = Length{Value: 625, Unit: UnitPX}

// Measurer 负责测量一段文本在指定样式与字号下的像素宽高。
// 实现必须是纯函数：相同输入得到相同结果，且可被并发调用。
type Measurer interface {
	Measure(text string, style Style, sizePx float64) (width, height uint32)
}
