package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TableColumn defines a column in a Table or Row.
type TableColumn struct {
	Width      int         // fixed character width, or the minimum when Flex is set
	Flex       bool        // take whatever width the fixed columns leave
	AlignRight bool        // right-align text within the column
	Style      vaxis.Style // applied to all cells in this column
}

// Layout resolves column widths for a total width. Flex columns share the
// space left after fixed columns and gaps, never shrinking below Width.
func Layout(cols []TableColumn, total, gap int) []int {
	widths := make([]int, len(cols))
	fixed := gap * max(len(cols)-1, 0)
	flex := 0
	for i, c := range cols {
		widths[i] = c.Width
		if c.Flex {
			flex++
			continue
		}
		fixed += c.Width
	}
	if flex == 0 {
		return widths
	}
	spare := max(total-fixed, 0)
	share, rem := spare/flex, spare%flex
	for i, c := range cols {
		if !c.Flex {
			continue
		}
		w := share
		if rem > 0 {
			w++
			rem--
		}
		widths[i] = max(w, c.Width)
	}
	return widths
}

// writeText writes s into surf at (col, row) clipped to maxWidth. Right
// aligned text is padded on the left.
func writeText(surf *vxfw.Surface, col, row uint16, maxWidth int, s string, style vaxis.Style, alignRight bool) {
	chars := vaxis.Characters(s)

	displayWidth := 0
	for _, ch := range chars {
		displayWidth += ch.Width
	}

	offset := 0
	if alignRight && displayWidth < maxWidth {
		offset = maxWidth - displayWidth
	}

	pos := offset
	for _, ch := range chars {
		if pos+ch.Width > maxWidth {
			break
		}
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{
			Character: ch,
			Style:     style,
		})
		pos += ch.Width
	}
}

// fill paints width blank cells with style, used for the selection bar.
func fill(surf *vxfw.Surface, row uint16, width int, style vaxis.Style) {
	for c := 0; c < width; c++ {
		surf.WriteCell(uint16(c), row, vaxis.Cell{
			Character: vaxis.Character{Grapheme: " ", Width: 1},
			Style:     style,
		})
	}
}

func writeRow(surf *vxfw.Surface, row uint16, cols []TableColumn, widths []int, gap int, cells []string, override *vaxis.Style) {
	col := 0
	for i, c := range cols {
		if col >= int(surf.Size.Width) {
			break
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		style := c.Style
		if override != nil {
			style = *override
		}
		w := min(widths[i], int(surf.Size.Width)-col)
		writeText(surf, uint16(col), row, w, text, style, c.AlignRight)
		col += widths[i] + gap
	}
}

// Table renders rows of text in aligned columns. Each row is a []string
// matching the Columns slice.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
	Header  []string // optional header row rendered with AttrDim
	Gap     int      // spaces between columns (default 1)
}

// Draw renders the header (if set) and as many rows as fit.
func (t *Table) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}

	totalRows := len(t.Rows)
	if t.Header != nil {
		totalRows++
	}
	height := min(uint16(totalRows), ctx.Max.Height)

	s := vxfw.NewSurface(ctx.Max.Width, height, t)
	widths := Layout(t.Columns, int(ctx.Max.Width), gap)
	row := uint16(0)

	if t.Header != nil && row < height {
		dim := vaxis.Style{Attribute: vaxis.AttrDim}
		writeRow(&s, row, t.Columns, widths, gap, t.Header, &dim)
		row++
	}

	for _, cells := range t.Rows {
		if row >= height {
			break
		}
		writeRow(&s, row, t.Columns, widths, gap, cells, nil)
		row++
	}

	return s, nil
}

// Row is one line of a table, drawn on its own so it can be an item of a
// scrolling list.
type Row struct {
	Columns  []TableColumn
	Cells    []string
	Gap      int
	Selected bool
}

// Draw renders the row. A selected row is drawn in reverse video across
// the full width.
func (r *Row) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	gap := r.Gap
	if gap == 0 {
		gap = 1
	}
	s := vxfw.NewSurface(ctx.Max.Width, 1, r)
	widths := Layout(r.Columns, int(ctx.Max.Width), gap)
	if !r.Selected {
		writeRow(&s, 0, r.Columns, widths, gap, r.Cells, nil)
		return s, nil
	}
	sel := vaxis.Style{Attribute: vaxis.AttrReverse}
	fill(&s, 0, int(ctx.Max.Width), sel)
	writeRow(&s, 0, r.Columns, widths, gap, r.Cells, &sel)
	return s, nil
}
