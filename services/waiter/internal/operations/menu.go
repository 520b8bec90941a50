package operations

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// MenuFilter narrows the menu to one group and to a search term matched
// against recipe and group names. Zero values match everything.
type MenuFilter struct {
	GroupID int    `json:"group_id,omitempty"`
	Search  string `json:"search,omitempty"`
}

// FilterRecipes keeps the recipes matching f in input order. Search is
// case-insensitive under Unicode case folding.
func FilterRecipes(recipes []pos.Recipe, f MenuFilter) []pos.Recipe {
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(f.Search))
	out := make([]pos.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if f.GroupID != 0 && (r.Group == nil || r.Group.ID != f.GroupID) {
			continue
		}
		if term != "" &&
			!strings.Contains(fold.String(r.Name), term) &&
			!strings.Contains(fold.String(r.GroupName()), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}
