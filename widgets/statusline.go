package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Segment is a run of styled text in a StatusLine.
type Segment struct {
	Text  string
	Style vaxis.Style
}

// StatusLine is a single row with segments packed from the left, separated
// by two spaces, and one right-aligned text such as "page 2/6".
type StatusLine struct {
	Segments []Segment
	Right    string
}

// Draw renders the line. Segments that would run into the right text are
// cut off.
func (sl *StatusLine) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sl)

	limit := int(ctx.Max.Width)
	if sl.Right != "" {
		chars := ctx.Characters(sl.Right)
		width := 0
		for _, ch := range chars {
			width += ch.Width
		}
		start := max(int(ctx.Max.Width)-width, 0)
		limit = start - 1
		pos := start
		dim := vaxis.Style{Attribute: vaxis.AttrDim}
		for _, ch := range chars {
			if pos+ch.Width > int(ctx.Max.Width) {
				break
			}
			s.WriteCell(uint16(pos), 0, vaxis.Cell{Character: ch, Style: dim})
			pos += ch.Width
		}
	}

	col := 0
	for i, seg := range sl.Segments {
		if seg.Text == "" {
			continue
		}
		text := seg.Text
		if i > 0 && col > 0 {
			text = "  " + text
		}
		for _, ch := range ctx.Characters(text) {
			if col+ch.Width > limit {
				return s, nil
			}
			s.WriteCell(uint16(col), 0, vaxis.Cell{Character: ch, Style: seg.Style})
			col += ch.Width
		}
	}
	return s, nil
}
