package views

import (
	"git.sr.ht/~rockorager/vaxis"
)

// searchBox is the one-line filter editor opened with '/'.
type searchBox struct {
	editing bool
	query   string
}

// handle applies a key while editing. It reports whether the query text
// changed and whether the key was consumed.
func (b *searchBox) handle(key vaxis.Key) (changed, consumed bool) {
	if !b.editing {
		if key.Matches('/') {
			b.editing = true
			return false, true
		}
		return false, false
	}

	switch {
	case key.Matches(vaxis.KeyEnter):
		b.editing = false
		return false, true
	case key.Matches(vaxis.KeyEsc):
		b.editing = false
		if b.query == "" {
			return false, true
		}
		b.query = ""
		return true, true
	case key.Matches(vaxis.KeyBackspace):
		if b.query == "" {
			return false, true
		}
		r := []rune(b.query)
		b.query = string(r[:len(r)-1])
		return true, true
	case key.Text != "" && key.Modifiers&^vaxis.ModShift == 0:
		b.query += key.Text
		return true, true
	}
	return false, true
}

// label renders the box for the status line.
func (b *searchBox) label() string {
	switch {
	case b.editing:
		return "/" + b.query + "▏"
	case b.query != "":
		return "search: " + b.query
	default:
		return ""
	}
}
