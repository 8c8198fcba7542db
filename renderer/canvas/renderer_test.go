package canvasrenderer

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/ByLCY/cardprint/fault"
	"github.com/ByLCY/cardprint/layout"
	"github.com/ByLCY/cardprint/paragraph"
	"github.com/ByLCY/cardprint/symbols"
)

const hasteReminder = "(This creature can attack and {T} as soon as it comes under your control.)"

func sharedRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := Default()
	if err != nil {
		t.Fatalf("初始化渲染器失败: %v", err)
	}
	return r
}

func mustBuild(t *testing.T, r *Renderer, keyword, text string, maxWidth uint32) *layout.Layout {
	t.Helper()
	l, err := layout.Build(r, keyword, paragraph.Tokenize(text), 38, maxWidth)
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return l
}

func TestMeasure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cardprint.renderer")
	defer teardown()
	r := sharedRenderer(t)

	if w, h := r.Measure("", layout.StyleRegular, 38); w != 0 || h != 0 {
		t.Fatalf("空串应为 0x0, 实际 %dx%d", w, h)
	}
	w1, h1 := r.Measure("creature", layout.StyleRegular, 38)
	w2, _ := r.Measure("creature creature", layout.StyleRegular, 38)
	if w1 == 0 || w2 <= w1 {
		t.Fatalf("宽度应随文本增长: %d, %d", w1, w2)
	}
	if wb, _ := r.Measure("creature", layout.StyleBold, 38); wb <= w1 {
		t.Fatalf("粗体应更宽: %d <= %d", wb, w1)
	}
	if wBig, hBig := r.Measure("creature", layout.StyleRegular, 76); wBig <= w1 || hBig <= h1 {
		t.Fatalf("字号加倍后尺寸应变大: %dx%d vs %dx%d", wBig, hBig, w1, h1)
	}
}

// 高度取自字形包围盒：带下伸部的文本更高。
func TestMeasureHeightFollowsGlyphs(t *testing.T) {
	r := sharedRenderer(t)
	_, plain := r.Measure("ace", layout.StyleRegular, 38)
	_, descend := r.Measure("gjpqy", layout.StyleRegular, 38)
	if plain == 0 || descend <= plain {
		t.Fatalf("\"gjpqy\" 高度 %d 应大于 \"ace\" 高度 %d", descend, plain)
	}
	if _, dot := r.Measure(".", layout.StyleRegular, 38); dot == 0 {
		t.Fatalf("\".\" 的高度不应为 0")
	}
	if _, blank := r.Measure("   ", layout.StyleRegular, 38); blank != 0 {
		t.Fatalf("只有空白时高度应为 0, 实际 %d", blank)
	}
}

func TestHasteWrapsAndRenders(t *testing.T) {
	r := sharedRenderer(t)
	l := mustBuild(t, r, "Haste ", hasteReminder, 625)
	if len(l.Lines) < 2 {
		t.Fatalf("提示文本在 625px 内应折成多行, 实际 %d 行", len(l.Lines))
	}

	want := uint32(0)
	var texts []string
	for i, ln := range l.Lines {
		if len(ln.Runs) > 1 && ln.Width > l.MaxWidth {
			t.Fatalf("第 %d 行超宽: %d > %d", i, ln.Width, l.MaxWidth)
		}
		if i == 0 {
			want = max(l.KeywordHeight, ln.Height)
		} else {
			if ln.Y != want {
				t.Fatalf("第 %d 行 Y=%d, 期望 %d", i, ln.Y, want)
			}
			want += ln.Height
		}
		texts = append(texts, ln.Text())
	}
	if l.CanvasHeight != want || l.CanvasWidth != 625 {
		t.Fatalf("画布 %dx%d, 期望 625x%d", l.CanvasWidth, l.CanvasHeight, want)
	}
	if got, exp := strings.Join(texts, " "), strings.Join(strings.Fields(hasteReminder), " "); got != exp {
		t.Fatalf("拼接文本不一致:\n got=%q\nwant=%q", got, exp)
	}

	img, err := r.Render(l)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 625, int(l.CanvasHeight)) {
		t.Fatalf("图像尺寸 %v", img.Bounds())
	}
	if !hasInk(img, img.Bounds()) {
		t.Fatalf("图像应有像素")
	}
}

func TestSymbolIsComposited(t *testing.T) {
	r := sharedRenderer(t)
	l := mustBuild(t, r, "", "{T}", 200)
	ln := l.Lines[0]
	if len(ln.Runs) != 1 || ln.Width != l.SymbolSize {
		t.Fatalf("应只有一个符号 run, 宽度 %d: %+v", l.SymbolSize, ln.Runs)
	}

	img, err := r.Render(l)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !hasInk(img, image.Rect(0, 0, int(l.SymbolSize), int(l.CanvasHeight))) {
		t.Fatalf("符号区域应有像素")
	}
	if hasInk(img, image.Rect(int(l.SymbolSize)+2, 0, 200, int(l.CanvasHeight))) {
		t.Fatalf("符号右侧应为空白")
	}
}

func TestUnknownSymbolFailsWholeRender(t *testing.T) {
	r := sharedRenderer(t)
	l := mustBuild(t, r, "Haste ", "Pay {nonexistent} now.", 625)
	img, err := r.Render(l)
	if img != nil {
		t.Fatalf("失败时不应返回部分图像")
	}
	if !errors.Is(err, fault.ErrUnknownSymbol) || fault.KindOf(err) != fault.UnknownSymbol {
		t.Fatalf("期望 UnknownSymbol, 实际 %v", err)
	}
}

// 自定义符号集只包含给定的符号，内置符号在其中同样视为未知。
func TestCustomSymbolSet(t *testing.T) {
	set, err := symbols.NewSet(map[string][]byte{
		"X": []byte(`<svg viewBox="0 0 10 10"><rect width="10" height="10"/></svg>`),
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	r, err := New(Options{Symbols: set})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Render(mustBuild(t, r, "", "{X}", 200)); err != nil {
		t.Fatalf("渲染自定义符号失败: %v", err)
	}
	if _, err := r.Render(mustBuild(t, r, "", "{T}", 200)); !errors.Is(err, fault.ErrUnknownSymbol) {
		t.Fatalf("期望 UnknownSymbol, 实际 %v", err)
	}
}

func TestEmptyExplanation(t *testing.T) {
	r := sharedRenderer(t)
	l, err := layout.Build(r, "Flying", paragraph.Paragraph{}, 38, 625)
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(l.Lines) != 1 || len(l.Lines[0].Runs) != 0 {
		t.Fatalf("应只有一个空行: %+v", l.Lines)
	}
	if l.KeywordHeight == 0 || l.CanvasHeight != l.KeywordHeight {
		t.Fatalf("画布高度 %d 应等于关键字高度 %d", l.CanvasHeight, l.KeywordHeight)
	}

	img, err := r.Render(l)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	dy := img.Bounds().Dy()
	if img.Bounds() != image.Rect(0, 0, 625, int(l.KeywordHeight)) {
		t.Fatalf("图像尺寸 %v", img.Bounds())
	}
	if !hasInk(img, image.Rect(0, 0, int(l.KeywordWidth), dy)) {
		t.Fatalf("关键字区域应有像素")
	}
	if hasInk(img, image.Rect(int(l.KeywordWidth)+2, 0, 625, dy)) {
		t.Fatalf("关键字右侧应为空白")
	}
}

// 行宽恰好等于上限时不折行。
func TestExactWidthFitsOnOneLine(t *testing.T) {
	r := sharedRenderer(t)
	text := "SAMPLE-A SAMPLE-B"
	w, _ := r.Measure(text, layout.StyleRegular, 38)
	if n := len(mustBuild(t, r, "", text, w).Lines); n != 1 {
		t.Fatalf("宽度 %d 应放在一行, 实际 %d 行", w, n)
	}
	if n := len(mustBuild(t, r, "", text, w-1).Lines); n != 2 {
		t.Fatalf("宽度 %d 应折成两行, 实际 %d 行", w-1, n)
	}
}

func TestRenderRejectsEmptyCanvas(t *testing.T) {
	r := sharedRenderer(t)
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil 布局应报错")
	}
	if _, err := r.Render(&layout.Layout{}); err == nil {
		t.Fatalf("空画布应报错")
	}
}

func TestNewReportsBrokenFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cardprint.renderer")
	defer teardown()

	_, err := New(Options{Fonts: map[layout.Style]Resource{
		layout.StyleBold: {Bytes: []byte("definitely not a font")},
	}})
	if !errors.Is(err, fault.ErrAssetLoad) {
		t.Fatalf("期望 AssetLoad, 实际 %v", err)
	}

	_, err = New(Options{Fonts: map[layout.Style]Resource{
		layout.StyleItalic: {Path: filepath.Join(t.TempDir(), "missing.ttf")},
	}})
	if fault.KindOf(err) != fault.AssetLoadFailure {
		t.Fatalf("期望 AssetLoadFailure, 实际 %v", err)
	}

	_, err = New(Options{Fonts: map[layout.Style]Resource{
		layout.StyleItalic: {Path: "embed:mplantin-italic"},
	}})
	if fault.KindOf(err) != fault.AssetLoadFailure {
		t.Fatalf("未知内置字体应为 AssetLoadFailure, 实际 %v", err)
	}
}

func TestEmbeddedFontPath(t *testing.T) {
	r, err := New(Options{Fonts: map[layout.Style]Resource{
		layout.StyleItalic: {Path: "embed:go-regular"},
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wi, _ := r.Measure("creature", layout.StyleItalic, 38)
	wr, _ := r.Measure("creature", layout.StyleRegular, 38)
	if wi != wr {
		t.Fatalf("斜体替换为常规字体后宽度应相同: %d != %d", wi, wr)
	}
}

func TestDefaultIsShared(t *testing.T) {
	a := sharedRenderer(t)
	if b := sharedRenderer(t); a != b {
		t.Fatalf("Default 应返回同一个实例")
	}
}

func hasInk(img *image.RGBA, r image.Rectangle) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				return true
			}
		}
	}
	return false
}
