package widgets

import (
	"fmt"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// BarGauge is a horizontal progress bar.
//
//	EMB  [████████░░░░░░░░░░░░]  42.5%  120/284 records
type BarGauge struct {
	Label    string  // left column, padded to 4 chars
	Value    float64 // 0.0–100.0
	Suffix   string  // text after %, e.g. "120/284 records"
	BarWidth int     // character width of the bar, excluding brackets
	// Failed colours the bar red regardless of Value.
	Failed bool
}

const (
	barFilled = '█'
	barEmpty  = '░'
)

// barColor colours progress: yellow while early, cyan once well under
// way and green at completion.
func barColor(pct float64, failed bool) vaxis.Color {
	switch {
	case failed:
		return vaxis.IndexColor(1)
	case pct >= 100:
		return vaxis.IndexColor(2)
	case pct >= 50:
		return vaxis.IndexColor(6)
	default:
		return vaxis.IndexColor(3)
	}
}

// Draw renders the bar gauge as a single row.
func (bg *BarGauge) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, bg)
	col := uint16(0)
	put := func(text string, style vaxis.Style) {
		for _, ch := range ctx.Characters(text) {
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
			col += uint16(ch.Width)
		}
	}

	put(fmt.Sprintf("%-4s ", bg.Label), vaxis.Style{Attribute: vaxis.AttrBold})
	put("[", vaxis.Style{})

	v := min(max(bg.Value, 0), 100)
	filled := int(v / 100 * float64(bg.BarWidth))
	fillStyle := vaxis.Style{Foreground: barColor(v, bg.Failed)}
	emptyStyle := vaxis.Style{Foreground: vaxis.IndexColor(8)}
	for i := 0; i < bg.BarWidth; i++ {
		if i < filled {
			put(string(barFilled), fillStyle)
		} else {
			put(string(barEmpty), emptyStyle)
		}
	}

	put(fmt.Sprintf("] %5.1f%%", v), vaxis.Style{})
	if bg.Suffix != "" {
		put("  "+bg.Suffix, vaxis.Style{Attribute: vaxis.AttrDim})
	}
	return s, nil
}
