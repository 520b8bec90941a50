package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// ContainerIndex resolves a container id to its price.
type ContainerIndex map[int]pos.Container

// IndexContainers builds a ContainerIndex from the containers list.
func IndexContainers(containers []pos.Container) ContainerIndex {
	idx := make(ContainerIndex, len(containers))
	for _, c := range containers {
		idx[c.ID] = c
	}
	return idx
}

// Totals is the breakdown shown at the bottom of the cart.
type Totals struct {
	Food      decimal.Decimal `json:"food_total"`
	Container decimal.Decimal `json:"container_total"`
	Grand     decimal.Decimal `json:"grand_total"`
}

// MarshalJSON renders every amount with two decimals.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Food      string `json:"food_total"`
		Container string `json:"container_total"`
		Grand     string `json:"grand_total"`
	}{t.Food.StringFixed(2), t.Container.StringFixed(2), t.Grand.StringFixed(2)})
}

// FoodTotal sums the line totals.
func FoodTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// ContainerTotal sums packaging charges of takeaway lines whose recipe uses a
// container. Containers missing from idx contribute nothing.
func ContainerTotal(items []LineItem, idx ContainerIndex) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		id := item.ContainerID()
		if id == 0 {
			continue
		}
		container, ok := idx[id]
		if !ok {
			continue
		}
		total = total.Add(container.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func GrandTotal(items []LineItem, idx ContainerIndex) decimal.Decimal {
	return FoodTotal(items).Add(ContainerTotal(items, idx))
}

func Compute(items []LineItem, idx ContainerIndex) Totals {
	food := FoodTotal(items)
	container := ContainerTotal(items, idx)
	return Totals{
		Food:      food,
		Container: container,
		Grand:     food.Add(container),
	}
}
