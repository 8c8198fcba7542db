package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体：Go 字体家族的常规、斜体与粗体，分别用于正文、提示文本与关键字。
const (
	Regular = "go-regular"
	Italic  = "go-italic"
	Bold    = "go-bold"
)

var builtin = map[string][]byte{
	Regular: goregular.TTF,
	Italic:  goitalic.TTF,
	Bold:    gobold.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-bold" 或直接 "go-bold"。
func Load(name string) ([]byte, error) {
	clean := strings.TrimPrefix(name, "embed:")
	data, ok := builtin[clean]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未知字体，可用 %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names lists the built-in font names.
func Names() []string {
	return []string{Regular, Italic, Bold}
}
