package canvasrenderer

import (
	"fmt"
	"image"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/draw"

	"github.com/ByLCY/cardprint/fault"
	"github.com/ByLCY/cardprint/fonts"
	"github.com/ByLCY/cardprint/layout"
	"github.com/ByLCY/cardprint/paragraph"
	"github.com/ByLCY/cardprint/renderer"
	"github.com/ByLCY/cardprint/symbols"
)

// tracer traces with key 'cardprint.renderer'
func tracer() tracing.Trace {
	return tracing.Select("cardprint.renderer")
}

// Renderer measures and draws card text via github.com/tdewolff/canvas.
// One canvas unit is one pixel: the raster is produced at 1 dot per unit.
type Renderer struct {
	family  *canvas.FontFamily
	symbols *symbols.Set
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Fonts 按样式覆盖内置的 Go 字体，例如传入 MPlantin 的常规与斜体。
	Fonts map[layout.Style]Resource
	// Symbols 为 nil 时使用内置符号集。
	Symbols *symbols.Set
}

// Resource can be provided either by Bytes or by Path. A Path of the form
// "embed:go-bold" names a built-in font.
type Resource struct {
	Bytes []byte
	Path  string
}

var defaultFonts = map[layout.Style]string{
	layout.StyleRegular: fonts.Regular,
	layout.StyleItalic:  fonts.Italic,
	layout.StyleBold:    fonts.Bold,
}

var canvasStyles = map[layout.Style]canvas.FontStyle{
	layout.StyleRegular: canvas.FontRegular,
	layout.StyleItalic:  canvas.FontItalic,
	layout.StyleBold:    canvas.FontBold,
}

// New loads all three font styles eagerly; any unreadable or malformed font
// fails construction with an AssetLoadFailure.
func New(opts Options) (*Renderer, error) {
	family := canvas.NewFontFamily("cardprint")
	for _, style := range []layout.Style{layout.StyleRegular, layout.StyleItalic, layout.StyleBold} {
		name, data, err := fontBytes(style, opts.Fonts[style])
		if err != nil {
			return nil, fault.AssetLoad(name, err)
		}
		if err := family.LoadFont(data, 0, canvasStyles[style]); err != nil {
			return nil, fault.AssetLoad(name, err)
		}
	}

	set := opts.Symbols
	if set == nil {
		var err error
		if set, err = symbols.Builtin(); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("canvas renderer ready, symbols %v", set.Names())
	return &Renderer{family: family, symbols: set}, nil
}

func fontBytes(style layout.Style, res Resource) (string, []byte, error) {
	switch {
	case len(res.Bytes) > 0:
		return style.String() + " font", res.Bytes, nil
	case strings.HasPrefix(res.Path, "embed:"):
		data, err := fonts.Load(res.Path)
		return res.Path, data, err
	case res.Path != "":
		data, err := os.ReadFile(res.Path)
		return res.Path, data, err
	default:
		name := defaultFonts[style]
		data, err := fonts.Load(name)
		return name, data, err
	}
}

var defaultRenderer = sync.OnceValues(func() (*Renderer, error) {
	return New(Options{})
})

// Default returns a process-wide renderer using the embedded fonts and symbols.
func Default() (*Renderer, error) { return defaultRenderer() }

func (r *Renderer) face(style layout.Style, sizePx float64) *canvas.FontFace {
	return r.family.Face(toPt(sizePx), canvas.Black, canvasStyles[style], canvas.FontNormal)
}

// Measure 实现 layout.Measurer：宽度为字形前进宽度之和；高度为字形轮廓的包围盒
// 底边（以 ascent 处为顶）到行顶的距离，均向上取整。高度随文本内容变化，
// 空串或只有空白时为 0。
func (r *Renderer) Measure(text string, style layout.Style, sizePx float64) (uint32, uint32) {
	if text == "" {
		return 0, 0
	}
	face := r.face(style, sizePx)
	return ceilPx(face.TextWidth(text)), ceilPx(glyphHeight(face, text))
}

// glyphHeight 返回从行顶（基线上方 ascent 处）到字形最低点的距离。
func glyphHeight(face *canvas.FontFace, text string) float64 {
	p, _, err := face.ToPath(text)
	if err != nil || p == nil || p.Empty() {
		return 0
	}
	// ToPath 以基线为原点、y 轴向上
	return face.Metrics().Ascent - p.Bounds().Y0
}

// Render draws the keyword and all placed runs, then composites the symbols.
// Symbols are resolved before anything is drawn, so an unknown symbol yields
// no image at all.
func (r *Renderer) Render(l *layout.Layout) (*image.RGBA, error) {
	if l == nil {
		return nil, fmt.Errorf("渲染布局为空")
	}
	if l.CanvasWidth == 0 || l.CanvasHeight == 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", l.CanvasWidth, l.CanvasHeight)
	}
	bitmaps, err := r.resolveSymbols(l)
	if err != nil {
		return nil, err
	}

	c := canvas.New(float64(l.CanvasWidth), float64(l.CanvasHeight))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与布局一致，左上角为原点

	if l.Keyword != "" {
		r.drawText(ctx, l.Keyword, layout.StyleBold, l.FontSize, 0, 0)
	}
	for _, line := range l.Lines {
		for _, run := range line.Runs {
			switch run.Kind {
			case paragraph.KindRegular:
				r.drawText(ctx, run.Text, layout.StyleRegular, l.FontSize, run.X, line.Y)
			case paragraph.KindItalic:
				r.drawText(ctx, run.Text, layout.StyleItalic, l.FontSize, run.X, line.Y)
			}
		}
	}
	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	for _, line := range l.Lines {
		for _, run := range line.Runs {
			if run.Kind != paragraph.KindSymbol {
				continue
			}
			sym := bitmaps[run.Text]
			top := int(line.Y) + (int(line.Height)-int(l.SymbolSize))/2 // 在行内垂直居中
			at := image.Pt(int(run.X), max(top, int(line.Y)))
			draw.Draw(img, sym.Bounds().Add(at), sym, image.Point{}, draw.Over)
		}
	}
	tracer().Debugf("rendered %q: %dx%d, %d symbols", l.Keyword, l.CanvasWidth, l.CanvasHeight, len(bitmaps))
	return img, nil
}

func (r *Renderer) resolveSymbols(l *layout.Layout) (map[string]*image.RGBA, error) {
	bitmaps := map[string]*image.RGBA{}
	for _, line := range l.Lines {
		for _, run := range line.Runs {
			if run.Kind != paragraph.KindSymbol {
				continue
			}
			if _, ok := bitmaps[run.Text]; ok {
				continue
			}
			if !r.symbols.Has(run.Text) {
				return nil, fault.Symbol(run.Text)
			}
			img, err := r.symbols.Render(run.Text, int(l.SymbolSize))
			if err != nil {
				return nil, err
			}
			bitmaps[run.Text] = img
		}
	}
	return bitmaps, nil
}

// drawText 在 (x, top) 处绘制一段文本；基线位于 top + ascent。
func (r *Renderer) drawText(ctx *canvas.Context, text string, style layout.Style, sizePx float64, x, top uint32) {
	face := r.face(style, sizePx)
	baseline := float64(top) + face.Metrics().Ascent
	ctx.DrawText(float64(x), baseline, canvas.NewTextLine(face, text, canvas.Left))
}

// toPt 将像素（即画布单位）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }

func ceilPx(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(math.Ceil(v - 1e-9))
}
