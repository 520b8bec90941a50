package draft

import (
	"github.com/appetiteclub/tableside/pkg/pos"
	"github.com/appetiteclub/tableside/services/waiter/internal/cart"
)

// Payload is the wire form of a cart.
type Payload struct {
	Items          []pos.OrderItemPayload
	ContainerSales []pos.ContainerSalePayload
}

// BuildPayload maps every line to an order item and adds one container sale
// for each takeaway line whose recipe uses a container.
func BuildPayload(items []cart.LineItem) Payload {
	p := Payload{
		Items:          make([]pos.OrderItemPayload, 0, len(items)),
		ContainerSales: []pos.ContainerSalePayload{},
	}
	for _, item := range items {
		p.Items = append(p.Items, pos.OrderItemPayload{
			Recipe:     item.Recipe.ID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			IsTakeaway: item.IsTakeaway,
		})
		if id := item.ContainerID(); id != 0 {
			p.ContainerSales = append(p.ContainerSales, pos.ContainerSalePayload{
				Container: id,
				Quantity:  item.Quantity,
			})
		}
	}
	return p
}

func (p Payload) createRequest(tableID int, waiter string) pos.CreateOrderRequest {
	return pos.CreateOrderRequest{
		Table:          tableID,
		Waiter:         waiter,
		Items:          p.Items,
		ContainerSales: p.ContainerSales,
	}
}

func (p Payload) updateRequest() pos.UpdateOrderRequest {
	return pos.UpdateOrderRequest{
		Items:          p.Items,
		ContainerSales: p.ContainerSales,
	}
}
