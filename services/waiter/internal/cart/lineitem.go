package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// LineItem is one entry of a cart. TotalPrice always equals UnitPrice times
// Quantity after a mutation made through Cart.
type LineItem struct {
	Recipe     pos.Recipe      `json:"recipe"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes"`
	IsTakeaway bool            `json:"is_takeaway"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	return json.Marshal(struct {
		plain
		UnitPrice  string `json:"unit_price"`
		TotalPrice string `json:"total_price"`
	}{plain(li), li.UnitPrice.StringFixed(2), li.TotalPrice.StringFixed(2)})
}

func newLineItem(recipe pos.Recipe) LineItem {
	return LineItem{
		Recipe:     recipe,
		Quantity:   1,
		UnitPrice:  recipe.BasePrice,
		TotalPrice: recipe.BasePrice,
	}
}

// mergeable reports whether another unmodified portion of recipe can be folded
// into this line instead of opening a new one.
func (li LineItem) mergeable(recipe pos.Recipe) bool {
	return li.Recipe.ID == recipe.ID && li.Notes == "" && !li.IsTakeaway
}

func (li *LineItem) setQuantity(quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	li.Quantity = quantity
	li.TotalPrice = li.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ContainerID is the packaging charged for this line, or 0 when none applies.
func (li LineItem) ContainerID() int {
	if !li.IsTakeaway || li.Recipe.Container == nil {
		return 0
	}
	return *li.Recipe.Container
}
