package widgets

import (
	"math"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Block characters for sparkline rendering (8 levels).
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a 1-row graph of recent samples, such as embedding
// throughput, using block characters.
type Sparkline struct {
	values []float64
	head   int
	count  int
	// Color of the blocks. Zero means cyan.
	Color vaxis.Color
}

// NewSparkline creates a Sparkline with the given ring buffer capacity.
func NewSparkline(capacity int) *Sparkline {
	return &Sparkline{
		values: make([]float64, max(capacity, 1)),
	}
}

// Push adds a sample, overwriting the oldest once full.
func (sl *Sparkline) Push(v float64) {
	sl.values[sl.head] = v
	sl.head = (sl.head + 1) % len(sl.values)
	if sl.count < len(sl.values) {
		sl.count++
	}
}

// Count returns the number of samples currently stored.
func (sl *Sparkline) Count() int {
	return sl.count
}

// Values returns the samples in chronological order.
func (sl *Sparkline) Values() []float64 {
	if sl.count == 0 {
		return nil
	}
	out := make([]float64, sl.count)
	start := (sl.head - sl.count + len(sl.values)) % len(sl.values)
	for i := range sl.count {
		out[i] = sl.values[(start+i)%len(sl.values)]
	}
	return out
}

// level maps v onto 0..7 between lo and hi.
func level(v, lo, hi float64) int {
	switch {
	case hi > lo:
		return min(int(math.Round((v-lo)/(hi-lo)*7)), 7)
	case hi > 0:
		return 4 // flat non-zero line
	default:
		return 0
	}
}

// Draw renders the newest samples that fit the width.
func (sl *Sparkline) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sl)

	vals := sl.Values()
	if len(vals) == 0 {
		return s, nil
	}
	if width := int(ctx.Max.Width); len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	color := sl.Color
	if color == 0 {
		color = vaxis.IndexColor(6)
	}
	style := vaxis.Style{Foreground: color}
	for i, v := range vals {
		ch := sparkBlocks[level(v, lo, hi)]
		for _, c := range ctx.Characters(string(ch)) {
			s.WriteCell(uint16(i), 0, vaxis.Cell{Character: c, Style: style})
		}
	}
	return s, nil
}
