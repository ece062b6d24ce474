package widgets_test

import (
	"strings"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

// rowText joins the graphemes of row r, with blank cells as spaces.
func rowText(s vxfw.Surface, r int) string {
	var b strings.Builder
	w := int(s.Size.Width)
	for _, c := range s.Buffer[r*w : (r+1)*w] {
		if c.Character.Grapheme == "" {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(c.Character.Grapheme)
	}
	return b.String()
}
