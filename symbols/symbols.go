package symbols

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/cardprint/fault"
)

// tracer traces with key 'cardprint.symbols'
func tracer() tracing.Trace {
	return tracing.Select("cardprint.symbols")
}

//go:embed svg/*.svg
var svgFS embed.FS

// Set resolves symbol names to parsed vector art. A Set is immutable after
// construction and safe for concurrent Render calls.
type Set struct {
	symbols map[string]*canvas.Canvas
}

var builtin = sync.OnceValues(func() (*Set, error) {
	sources, err := ReadSources(svgFS, "svg")
	if err != nil {
		return nil, err
	}
	return NewSet(sources)
})

// Builtin returns the process-wide set of embedded symbols (T, Q, C, E),
// parsed on first use.
func Builtin() (*Set, error) { return builtin() }

// ReadSources reads every *.svg file in dir; the file name without extension
// is the symbol name.
func ReadSources(fsys fs.FS, dir string) (map[string][]byte, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fault.AssetLoad(dir, err)
	}
	sources := map[string][]byte{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".svg" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fault.AssetLoad(e.Name(), err)
		}
		sources[strings.TrimSuffix(e.Name(), ".svg")] = data
	}
	return sources, nil
}

// NewSet parses all sources with canvas' SVG parser. Any malformed or empty
// source fails the whole set.
func NewSet(sources map[string][]byte) (*Set, error) {
	s := &Set{symbols: make(map[string]*canvas.Canvas, len(sources))}
	for name, src := range sources {
		if name == "" {
			return nil, fault.AssetLoad(name, fmt.Errorf("符号名为空"))
		}
		c, err := canvas.ParseSVG(bytes.NewReader(src))
		if err != nil {
			return nil, fault.AssetLoad(name, fmt.Errorf("解析 SVG 失败: %w", err))
		}
		if c.W <= 0 || c.H <= 0 {
			return nil, fault.AssetLoad(name, fmt.Errorf("SVG 尺寸无效: %gx%g", c.W, c.H))
		}
		if c.Empty() {
			return nil, fault.AssetLoad(name, fmt.Errorf("SVG 中没有可绘制的图形"))
		}
		s.symbols[name] = c
	}
	tracer().Debugf("loaded %d symbols", len(s.symbols))
	return s, nil
}

// Has reports whether name resolves to a symbol.
func (s *Set) Has(name string) bool {
	_, ok := s.symbols[name]
	return ok
}

// Names returns the symbol names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render rasterizes the named symbol into a size x size RGBA bitmap.
func (s *Set) Render(name string, size int) (*image.RGBA, error) {
	sym, ok := s.symbols[name]
	if !ok {
		return nil, fault.Symbol(name)
	}
	if size <= 0 {
		return nil, fmt.Errorf("符号 %s 的尺寸无效: %d", name, size)
	}

	edge := float64(size)
	c := canvas.New(edge, edge)
	sym.RenderViewTo(c, canvas.Identity.Scale(edge/sym.W, edge/sym.H)) // 拉伸到正方形
	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace), nil
}
