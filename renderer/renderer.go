package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/cardprint/layout"
)

// Renderer 将排版结果绘制为位图。
// 实现不得访问文件系统；失败时不返回部分图像。
type Renderer interface {
	Render(l *layout.Layout) (*image.RGBA, error)
}

// FitWidth 将图像等比缩放到指定像素宽度（CatmullRom 插值），高度按比例取整。
// width <= 0 或与原宽度相同时返回原图的副本。
func FitWidth(img image.Image, width int) *image.NRGBA {
	if width <= 0 || width == img.Bounds().Dx() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, 0, imaging.CatmullRom)
}

// ForPrint 将图像缩放到物理打印宽度，例如 59mm@300dpi。
func ForPrint(img image.Image, width layout.Length, dpi float64) (*image.NRGBA, error) {
	if !width.Physical() {
		return nil, fmt.Errorf("打印宽度必须带物理单位（mm/cm/in/pt）: %s", width)
	}
	px := width.ToPixels(dpi)
	if px == 0 {
		return nil, fmt.Errorf("打印宽度过小: %s", width)
	}
	return FitWidth(img, int(px)), nil
}

// OnBackground 将带透明通道的图像铺在纯色背景上；热敏打印机不支持透明。
func OnBackground(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}

// Save 按扩展名编码并写入图像文件（通常为 .png）。
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("保存图像 %s 失败: %w", path, err)
	}
	return nil
}
