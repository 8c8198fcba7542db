package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths for canvas widths given in pixels or
// in physical units of the print medium.

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as pixels
	UnitPX               // pixels
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm  = 0.352777
	MmToPt  = 1.0 / PtToMm
	MmPerIn = 25.4
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// Physical reports whether the length needs a DPI to become pixels.
func (l Length) Physical() bool {
	switch l.Unit {
	case UnitMM, UnitCM, UnitIN, UnitPT:
		return true
	default:
		return false
	}
}

// ToMM converts a physical length to millimeters. Pixel lengths have no
// physical size and convert to 0.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * MmPerIn
	case UnitPT:
		return l.Value * PtToMm
	default:
		return 0
	}
}

// ToPixels converts the length to whole pixels at the given density, rounding up.
func (l Length) ToPixels(dpi float64) uint32 {
	if !l.Physical() {
		return uint32(math.Ceil(math.Max(l.Value, 0)))
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	px := l.ToMM() / MmPerIn * dpi
	return uint32(math.Ceil(math.Max(px-1e-9, 0)))
}

// PixelsPerInch returns the print density of an image px pixels wide printed
// at the physical width l.
func PixelsPerInch(px uint32, l Length) float64 {
	mm := l.ToMM()
	if mm <= 0 {
		return 0
	}
	return math.Round(float64(px) / (mm / MmPerIn))
}

// ParseLength parses a sheet length such as "625", "625px", "53mm" or "2.1in".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("长度不能为负: %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}
