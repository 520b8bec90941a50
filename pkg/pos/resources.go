package pos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OpenOrderStatus marks an order that is still open and unpaid.
const OpenOrderStatus = "CREATED"

type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Table struct {
	ID     int   `json:"id"`
	Number int   `json:"table_number"`
	Zone   *Zone `json:"zone,omitempty"`
}

// ZoneName is empty for tables without a zone.
func (t Table) ZoneName() string {
	if t.Zone == nil {
		return ""
	}
	return t.Zone.Name
}

type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Recipe struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	PreparationTime int             `json:"preparation_time"`
	Group           *Group          `json:"group,omitempty"`
	Container       *int            `json:"container"`
	IsAvailable     bool            `json:"is_available"`
	IsActive        bool            `json:"is_active"`
}

// UnmarshalJSON accepts a full recipe object or a bare recipe id, since order
// item snapshots are sometimes serialized by primary key only.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Recipe{ID: id}
		return nil
	}
	type recipeAlias Recipe
	var alias recipeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*r = Recipe(alias)
	return nil
}

// HasContainer reports whether takeaway portions of this recipe need packaging.
func (r Recipe) HasContainer() bool {
	return r.Container != nil
}

// GroupName is empty for recipes without a group.
func (r Recipe) GroupName() string {
	if r.Group == nil {
		return ""
	}
	return r.Group.Name
}

type Container struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Recipes []int           `json:"recipes,omitempty"`
}

// TableRef is the table an order belongs to. The API serializes it either as
// a primary key or as a nested table object.
type TableRef struct {
	ID     int
	Number int
}

func (t *TableRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TableRef{}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*t = TableRef{ID: id}
		return nil
	}
	var nested Table
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	*t = TableRef{ID: nested.ID, Number: nested.Number}
	return nil
}

func (t TableRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ID)
}

type OrderItem struct {
	ID         int             `json:"id"`
	Recipe     Recipe          `json:"recipe"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes"`
	IsTakeaway bool            `json:"is_takeaway"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID          int                 `json:"id"`
	Table       TableRef            `json:"table"`
	Waiter      string              `json:"waiter"`
	Status      string              `json:"status"`
	Items       []OrderItem         `json:"items"`
	GrandTotal  decimal.NullDecimal `json:"grand_total"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Total is the amount owed for the order: grand_total when the API sent it,
// otherwise total_amount, otherwise zero.
func (o Order) Total() decimal.Decimal {
	if o.GrandTotal.Valid {
		return o.GrandTotal.Decimal
	}
	if o.TotalAmount.Valid {
		return o.TotalAmount.Decimal
	}
	return decimal.Zero
}

func (o Order) IsOpen() bool {
	return o.Status == OpenOrderStatus
}

// OrderItemPayload is one order line as accepted by POST and PUT /orders/.
type OrderItemPayload struct {
	Recipe     int    `json:"recipe"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
	IsTakeaway bool   `json:"is_takeaway"`
}

// ContainerSalePayload charges packaging for takeaway portions.
type ContainerSalePayload struct {
	Container int `json:"container"`
	Quantity  int `json:"quantity"`
}

type CreateOrderRequest struct {
	Table          int                    `json:"table"`
	Waiter         string                 `json:"waiter"`
	Items          []OrderItemPayload     `json:"items"`
	ContainerSales []ContainerSalePayload `json:"container_sales"`
}

type UpdateOrderRequest struct {
	Items          []OrderItemPayload     `json:"items"`
	ContainerSales []ContainerSalePayload `json:"container_sales"`
}
