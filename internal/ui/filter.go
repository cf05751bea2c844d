package ui

import (
	"strings"

	"github.com/soniadragulescu/beerstore/internal/beer"
)

// filterItems keeps items whose lower-cased name contains the lower-cased
// query and, when favoritesOnly is set, only favorites. Order is preserved.
func filterItems(items []beer.Item, query string, favoritesOnly bool) []beer.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]beer.Item, 0, len(items))
	for _, it := range items {
		if favoritesOnly && !it.Favorite {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Name), query) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// window limits how many filtered items are rendered. It grows by one step
// each time the cursor reaches the last shown row.
type window struct {
	step  int
	shown int
}

func newWindow(step int) window {
	if step <= 0 {
		step = 20
	}
	return window{step: step, shown: step}
}

// apply returns the prefix of items that is currently shown.
func (w window) apply(items []beer.Item) []beer.Item {
	if len(items) <= w.shown {
		return items
	}
	return items[:w.shown]
}

// grow extends the window when cursor sits on the last shown row and more
// items exist. It reports whether the window changed.
func (w *window) grow(cursor, total int) bool {
	if cursor < w.shown-1 || w.shown >= total {
		return false
	}
	w.shown += w.step
	return true
}

func (w *window) reset() {
	w.shown = w.step
}

// exhausted reports whether every item is already shown.
func (w window) exhausted(total int) bool {
	return w.shown >= total
}
