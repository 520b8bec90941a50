package cart

import (
	"github.com/appetiteclub/tableside/pkg/pos"
)

// Cart is the ordered list of line items of one draft. It is not safe for
// concurrent use; the draft controller serializes access.
type Cart struct {
	items []LineItem
}

// Update carries the fields to merge into a line. Nil fields are left as they are.
type Update struct {
	Quantity   *int    `json:"quantity,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	IsTakeaway *bool   `json:"is_takeaway,omitempty"`
}

func New() *Cart {
	return &Cart{items: []LineItem{}}
}

// FromOrder seeds a cart with one line per order item. Prices are copied as
// stored by the server, not recomputed.
func FromOrder(order pos.Order) *Cart {
	c := &Cart{items: make([]LineItem, 0, len(order.Items))}
	for _, item := range order.Items {
		c.items = append(c.items, LineItem{
			Recipe:     item.Recipe,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			IsTakeaway: item.IsTakeaway,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return c
}

// Add appends one portion of recipe. A plain repeat of a dish already in the
// cart without notes or takeaway increments that line instead.
func (c *Cart) Add(recipe pos.Recipe) {
	for i := range c.items {
		if c.items[i].mergeable(recipe) {
			c.items[i].setQuantity(c.items[i].Quantity + 1)
			return
		}
	}
	c.items = append(c.items, newLineItem(recipe))
}

// Update merges u into the line at index. It returns false when index is out of range.
func (c *Cart) Update(index int, u Update) bool {
	if !c.inRange(index) {
		return false
	}
	item := &c.items[index]
	if u.Notes != nil {
		item.Notes = *u.Notes
	}
	if u.IsTakeaway != nil {
		item.IsTakeaway = *u.IsTakeaway
	}
	if u.Quantity != nil {
		item.setQuantity(*u.Quantity)
	}
	return true
}

func (c *Cart) Remove(index int) bool {
	if !c.inRange(index) {
		return false
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return true
}

func (c *Cart) Increment(index int) bool {
	if !c.inRange(index) {
		return false
	}
	c.items[index].setQuantity(c.items[index].Quantity + 1)
	return true
}

// Decrement lowers the quantity by one, stopping at 1. Removing a line is
// always an explicit Remove.
func (c *Cart) Decrement(index int) bool {
	if !c.inRange(index) {
		return false
	}
	c.items[index].setQuantity(c.items[index].Quantity - 1)
	return true
}

func (c *Cart) Clear() {
	c.items = []LineItem{}
}

// Items returns a copy of the lines in cart order.
func (c *Cart) Items() []LineItem {
	if c == nil {
		return []LineItem{}
	}
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Cart) inRange(index int) bool {
	return c != nil && index >= 0 && index < len(c.items)
}
