package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/cardprint/dsl"
)

const sampleSheet = `
// 热敏打印机用的提示文本
sheet "Keyword reminders" {
  size: 38
  width: 53mm; dpi: 300

  card Haste { "(This creature can attack and {T} as soon as it comes under your control.)" }

  # 多段字符串会以空格拼接
  card "First strike" size 32 {
    "(This creature deals combat damage"
    "before creatures without first strike.)"
  }

  /* 没有说明文本的关键字 */
  card Flying {
  }
}
`

func TestParseSheet(t *testing.T) {
	sheet, err := dsl.ParseString(sampleSheet)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sheet.Name != "Keyword reminders" {
		t.Fatalf("expected sheet name, got %q", sheet.Name)
	}

	settings := sheet.Settings()
	if len(settings) != 3 {
		t.Fatalf("expected 3 settings, got %d", len(settings))
	}
	want := map[string]string{"size": "38", "width": "53mm", "dpi": "300"}
	for _, s := range settings {
		if want[s.Key] != string(s.Value) {
			t.Fatalf("setting %s = %q, want %q", s.Key, s.Value, want[s.Key])
		}
	}

	cards := sheet.Cards()
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	if cards[0].Keyword != "Haste" || !strings.Contains(cards[0].Content(), "{T}") {
		t.Fatalf("unexpected first card: %q %q", cards[0].Keyword, cards[0].Content())
	}
	second := cards[1]
	if second.Keyword != "First strike" {
		t.Fatalf("quoted keyword not unquoted: %q", second.Keyword)
	}
	if len(second.Params) != 1 || second.Params[0].Key != "size" || second.Params[0].Value != "32" {
		t.Fatalf("expected size override, got %+v", second.Params)
	}
	if got := second.Content(); got != "(This creature deals combat damage before creatures without first strike.)" {
		t.Fatalf("content not joined with a space: %q", got)
	}
	if cards[2].Content() != "" {
		t.Fatalf("expected empty explanation, got %q", cards[2].Content())
	}
	if cards[2].Pos.Line == 0 {
		t.Fatalf("card position not recorded")
	}
}

func TestParseSheetErrors(t *testing.T) {
	bad := []string{
		`sheet X { card { "no keyword" } }`,
		`sheet X { size 38 }`,
		`sheet X { card Haste "missing braces" }`,
		`sheet X { card Haste { "unterminated }`,
	}
	for _, src := range bad {
		if _, err := dsl.Parse(strings.NewReader(src)); err == nil {
			t.Fatalf("expected parse error for %q", src)
		}
	}
}
