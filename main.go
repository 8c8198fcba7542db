package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/ByLCY/cardprint/dsl"
	"github.com/ByLCY/cardprint/layout"
	"github.com/ByLCY/cardprint/renderer"
	canvasrenderer "github.com/ByLCY/cardprint/renderer/canvas"
)

// tracer traces with key 'cardprint.cli'
func tracer() tracing.Trace {
	return tracing.Select("cardprint.cli")
}

// traceKeys 是各个包使用的 tracer，由 -trace 统一设置级别。
var traceKeys = []string{
	"cardprint.cli",
	"cardprint.paragraph",
	"cardprint.layout",
	"cardprint.symbols",
	"cardprint.renderer",
}

// options 汇总命令行参数。
type options struct {
	input      string
	outDir     string
	debugPath  string
	data       any
	build      layout.BuildOptions
	printWidth layout.Length
}

func main() {
	input := flag.String("in", "cards.sheet", "卡牌清单文件路径")
	outDir := flag.String("out", "output", "PNG 输出目录")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到清单的 JSON 数据")
	size := flag.Float64("size", 0, "默认字号（像素），清单中的设置优先")
	width := flag.String("width", "", "默认画布宽度，如 625 或 53mm")
	dpi := flag.Float64("dpi", 0, "物理单位换算像素时使用的 dpi")
	printWidth := flag.String("print-width", "", "按物理纸宽缩放输出，如 59mm")
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	flag.Parse()

	if err := setupTracing(*tlevel); err != nil {
		log.Fatalf("配置日志失败: %v", err)
	}

	opts := options{
		input:     *input,
		outDir:    *outDir,
		debugPath: *debug,
		build:     layout.BuildOptions{FontSize: *size, DPI: *dpi},
	}
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &opts.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}
	var err error
	if *width != "" {
		if opts.build.Width, err = layout.ParseLength(*width); err != nil {
			log.Fatalf("-width 无效: %v", err)
		}
	}
	if *printWidth != "" {
		if opts.printWidth, err = layout.ParseLength(*printWidth); err != nil {
			log.Fatalf("-print-width 无效: %v", err)
		}
	}

	r, err := canvasrenderer.Default()
	if err != nil {
		log.Fatalf("初始化渲染器失败: %v", err)
	}
	written, err := run(opts, r)
	if err != nil {
		log.Fatalf("生成卡牌图像失败: %v", err)
	}
	pterm.Success.Println("已生成 " + strconv.Itoa(len(written)) + " 张卡牌图像：" + opts.outDir)
}

func setupTracing(level string) error {
	switch level {
	case "Debug", "Info", "Error":
	default:
		return fmt.Errorf("未知的 trace 级别 %q", level)
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{"tracing.adapter": "go"}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// run 串联解析、排版与渲染，返回写出的文件路径。
func run(opts options, r *canvasrenderer.Renderer) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(opts.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开清单文件 %s: %w", opts.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析清单失败: %w", err)
	}

	build := opts.build
	build.Measurer = r
	cards, err := layout.BuildSheet(doc, opts.data, build)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}

	if opts.debugPath != "" {
		if err := writeDebug(cards, opts.debugPath); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	dpi := opts.build.DPI
	if dpi <= 0 {
		dpi = layout.DefaultDPI
	}

	var written []string
	table := [][]string{{"#", "Card", "Lines", "Size", "File"}}
	for i, card := range cards {
		img, err := r.Render(card.Layout)
		if err != nil {
			return nil, fmt.Errorf("渲染卡牌 %s 失败: %w", card.Name, err)
		}
		out := renderer.OnBackground(img, color.White)
		if !opts.printWidth.IsZero() {
			if out, err = renderer.ForPrint(out, opts.printWidth, dpi); err != nil {
				return nil, err
			}
		}
		path := filepath.Join(opts.outDir, fmt.Sprintf("%02d-%s.png", i+1, slug(card.Name)))
		if err := renderer.Save(out, path); err != nil {
			return nil, err
		}
		tracer().Infof("card %q -> %s", card.Name, path)
		written = append(written, path)
		b := out.Bounds()
		size := fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		if !opts.printWidth.IsZero() {
			size += fmt.Sprintf(" @%gdpi", layout.PixelsPerInch(uint32(b.Dx()), opts.printWidth))
		}
		table = append(table, []string{
			strconv.Itoa(i + 1), card.Name, strconv.Itoa(len(card.Layout.Lines)), size, filepath.Base(path),
		})
	}
	if len(cards) > 0 {
		pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	} else {
		pterm.Info.Println("清单中没有卡牌")
	}
	return written, nil
}

func writeDebug(cards []layout.Card, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(cards, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// slug 将关键字转换为文件名，例如 "First strike" -> "first-strike"。
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "card"
	}
	return s
}
